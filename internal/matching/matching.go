// Package matching scores marketer profiles against published leads using
// admin-tuned weights, so newly published leads can be routed to the
// marketers most likely to buy them.
package matching
