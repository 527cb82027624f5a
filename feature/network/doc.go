// Package network reconciles VLANs, self IPs and routes, plus route domains as
// leaf settings.
package network
