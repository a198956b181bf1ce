// Package config loads workload files for the timerset CLI.
//
// A workload is a YAML (or JSON) document listing named events and how to
// exercise them. Files are checked against an embedded JSON Schema, then
// defaulted and validated:
//
//	name: demo
//	mode: ticks
//	workers: 4
//	events:
//	  - name: parse
//	    iterations: 100
//	    sleep: 200us
//	    nested:
//	      - name: parse.tokenize
//	        spin: 1000
package config
