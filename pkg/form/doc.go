/*
Package form implements the reactive "schedule a text message" form.

A Form owns one Field per input, derives validation errors from them, runs the
backend checks (number verified, code matches, password matches) as async
cells, and combines everything into a single Ready gate. A Dispatcher performs
the user-triggered actions and writes their outcome back into the form.

All methods must be called on the goroutine driving the form's reactive.Runtime.
*/
package form
