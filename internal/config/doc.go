// Package config holds the options of a patch run.
//
// Values are layered: DefaultConfig, then an optional .nmpatch.yaml file,
// then command-line flags. An example file:
//
//	mode: glob
//	path: "node_modules/**/*.ts"
//	ignore:
//	  - "**/skip/**"
//	marker: "// @ts-nocheck\n"
//	quiet: false
//	workers: 4
//	continue_on_error: true
//	log_level: debug
//	log_file: .nmpatch/run.log
//	lock: true
package config
