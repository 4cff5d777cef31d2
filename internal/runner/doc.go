// Package runner abstracts external command execution.
//
// Every pipeline step that shells out goes through the Runner interface, so
// orchestration tests can record invocations without spawning processes. The
// real implementation wires exec.CommandContext with an explicit working
// directory per call; the pipeline never mutates the process working directory.
package runner
