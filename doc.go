/*
Package textremind drives the "schedule a text message" workflow from the client
side: a reactive form whose fields, validation errors, remote checks and
submission flags all live in cells of one single-threaded runtime.

# Concept

Every input is a cell. Validation errors are computed from the cells they read,
and remote checks (is this number verified, does this code match) are async
cells that only call the backend once all their inputs are valid, and only
when those inputs changed. A generation counter guarantees that a slow answer
never overwrites the answer to a newer question. The "ready to submit" gate
combines all of it according to a verification policy.

# Usage

	app := textremind.New("http://localhost:8000")
	defer app.Close()

	f, act := app.Form, app.Actions
	f.Number.Set("555-123-4567")
	_ = app.Settle(ctx) // number check round trip

	if !f.NumberVerified.Value() {
		act.StartVerification()
		_ = app.Settle(ctx)
		f.Code.Set(codeFromSMS)
	}

	f.Message.Set("call mom")
	f.DeliveryTime.Set("tomorrow 9am")
	_ = app.Settle(ctx)

	if f.Ready() {
		act.Schedule()
		_ = app.Settle(ctx)
	}

All form methods must be called from the goroutine that drives the runtime.
Hosts that read input on one goroutine and render on another run the loop with
App.Run and hand work to it with App.Do.
*/
package textremind
