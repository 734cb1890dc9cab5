// Package gpg adapts an external OpenPGP binary for envault.
//
// envault never implements cryptography itself. All key handling, the
// cipher and recipient resolution are delegated to gpg; this package
// only locates a binary and shuttles cleartext and ciphertext across the
// process boundary. Calls are synchronous and have no timeout: a hung
// gpg (e.g. waiting on a pinentry) hangs the session.
package gpg
