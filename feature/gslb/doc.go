// Package gslb reconciles global server load balancing configuration: global
// synchronization settings, data centers, monitors, servers and prober pools.
//
// Global settings are leaf settings. The remaining classes become commands,
// emitted in reference order (data centers and monitors before the servers that
// use them, servers before the prober pools whose members name them) so that a
// single transaction can create all of them.
package gslb
