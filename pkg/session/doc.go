/*
Package session drives respondent sessions on top of a survey engine.

A Manager loads a session's state from a ports.StateStore, applies one
navigation step, saves the result and hands finished sessions to a
ports.SubmissionSink. Calls for the same session are serialized in process,
and across replicas when a ports.DistributedLocker is configured.
*/
package session
