// Package metadata reads the release descriptor of the project being shipped.
//
// The descriptor is a plain-text file whose significant content is a single
// assignment line, version = "1.2.3". It is parsed statically; nothing in the
// file is ever executed or evaluated.
package metadata
