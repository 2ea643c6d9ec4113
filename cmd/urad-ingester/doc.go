// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

// Urad-ingester polls a uRAD air-quality sensor over HTTP and serves the
// accumulated readings as a JSON array on GET /.
//
// Run from a terminal it stops on SIGINT or SIGTERM. Started by the
// Windows service manager it registers as the urad_ingester service and
// stops on the Stop and Shutdown controls. On Windows the install and
// remove subcommands register and unregister that service; flags given
// alongside install are stored as the service's start arguments.
//
// Configuration comes from a YAML or JSONC file (--config, or the
// URAD_INGESTER_CONFIG environment variable) over built-in defaults;
// individual flags override file values. With no file at all the
// defaults poll http://192.168.2.106/j every second and listen on
// 127.0.0.1:8753.
package main
