// Package services implements the Veyra resource modules on top of the
// session core: Auth, Users, Verifications, Analytics and ActivityLogs.
//
// Users and Verifications hand out canonical handles. Every fetch of the same
// remote entity, by either of its keys, returns the same *User or
// *Verification and refreshes its data in place. A fetch that the service
// answers with 404 yields a nil handle and no error.
package services
