// Package srt receives MPEG transport streams over SRT (Secure Reliable
// Transport), either by accepting publish connections (Server) or by
// dialing remote listeners (Caller), and feeds them to an ingest.Registry.
package srt
