// Package process supervises a single local child process with a deadline.
//
// The runner never forcefully kills the child. When the deadline expires it
// sends a graceful termination request and waits a bounded grace period for
// the child to exit; if the child ignores the request it is left running.
//
// The termination primitive is selected at build time. On Unix the child is
// placed in its own process group and the group receives SIGTERM, so shell
// wrappers and their children see the request together. On Windows the child
// is started in a new process group and receives CTRL_BREAK_EVENT, which
// console programs can observe as an interrupt. The runner itself contains no
// platform branches.
package process
