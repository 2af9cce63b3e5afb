// Package envelope seals short secrets (OTP seeds) with AES-256-GCM under a
// single process key.
//
// An envelope is three base64 segments joined by ':' (nonce, tag, ciphertext).
// The nonce and tag segments have fixed widths, so each part can be recovered
// and checked on its own before the AEAD open.
//
// There is no key rotation. Replacing the key makes every stored envelope
// undecryptable.
package envelope
