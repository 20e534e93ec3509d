// Package interpreter wraps the external chat-completion API used to read,
// extract, and verify answers in handwritten transcripts. The client issues
// a single HTTP request per call and tags failures with the services error
// sentinels; retry and timeout policy is applied by the caller's deadline
// supervisor.
package interpreter
