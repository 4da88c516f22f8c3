/*
Package types defines the data model shared across loadster.

# Overview

The types package provides the vocabulary the rest of the tool speaks:
  - RequestSpec: the immutable description of one load run
  - Sample: the outcome of one completed call
  - Method: the supported HTTP methods and their body semantics
  - Header: ordered name/value pairs parsed from "Name: Value" strings
  - TLSConfig: optional client certificate / CA / skip-verify material

# Conventions

A RequestSpec is built once by the CLI or scenario layer, validated there,
and then shared read-only by every worker. The Dispatcher never re-validates.

Headers keep their input order and duplicates; layering duplicate names is
left to net/http's Add semantics. Entries without a colon or without a name
are skipped during parsing rather than rejected.

Samples carry whatever status the server returned. Calls that never produced
a response have no Sample at all.
*/
package types
