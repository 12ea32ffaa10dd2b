// Package videogen talks to the video synthesis provider. Generation is a
// submit-then-poll exchange: the keyframe image and motion prompt are posted
// as a job, and the job is polled until the provider reports a settled state
// or the poll deadline passes.
package videogen
