// Package license binds the application to a purchase on the remote
// sales platform. Activation sends the device fingerprint along with
// the user's email and key; the platform's verdict is authoritative and
// the accepted license is stored as a single local row.
package license
