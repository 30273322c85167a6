/*
Package domain contains the core types shared by the TextRemind form engine and
its backend.

It is kept free of I/O and persistence so that both the client-side engine and
the server adapters can depend on it.

# Key Entities

  - FieldError: one (field, message) entry of a form's error set.
  - ScheduledMessage: a text message queued for delivery at a given time.
  - APIError: the rejection value of a transport call answered with a non-success status.
  - LifecycleHooks: callbacks fired around async evaluations and user actions.
*/
package domain
