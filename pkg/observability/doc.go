/*
Package observability provides tools for monitoring the Canopy engine.

It turns evaluation hooks into Prometheus metrics and structured log records,
and can chain several hook sets so both run for every evaluation.
*/
package observability
