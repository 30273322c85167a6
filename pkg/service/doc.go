/*
Package service implements the backend side of the scheduling workflow: issuing
and checking verification codes, managing passwords, and queueing messages.

Service exposes one method per operation and also implements ports.Transport,
so the same semantics can be served over HTTP or called in process.
*/
package service
