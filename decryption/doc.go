// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package decryption turns revealed ciphertext handles into cleartext counts.

It runs beside the survey rather than inside it. A caller submits handles
and receives a request id straight away:

	id, err := svc.Submit(handles)

Workers started by Run pick requests off a bounded queue. Each handle must
exist and be marked publicly decryptable; otherwise the request is rejected.
Values are returned in handle order, so position k of a revealed counter set
is the count for option k.

# Request States

	pending   -> resolved   all handles decrypted
	pending   -> rejected   unknown handle or not publicly decryptable
	pending   -> failed     storage error, value outside the solver range, shutdown
	pending   -> cancelled  Cancel was called

A pending request has no deadline. Callers poll Result or wait on the
channel returned by Done.

# Retention

Settled requests stay readable for DefaultRetention, and at most
DefaultMaxRetained of them are kept; the oldest are dropped first. A dropped
request reports ErrUnknownRequest. Once Run returns, Submit fails with
ErrServiceStopped.
*/
package decryption
