// Package system reconciles device-wide settings: hostname, software update
// checks, DNS, NTP, module provisioning and db variables. All of them are
// singletons, so the handler produces leaf settings only.
package system
