// Package release runs the release pipeline: archive the source tree, move the
// tarball into the local backup folder, build distribution files, register the
// release with the package index, and upload artifacts over secure copy.
//
// Steps run in a fixed order and the first failure aborts the whole run. There
// is no retry and no rollback: registration is a network side effect that
// cannot be undone, so a run that fails after it requires operator attention.
package release
