// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client is the public face of the sync engine.
//
// [Engine] is what a host application talks to: it enqueues local
// mutations, reads the local store, observes changes and failures, forces
// syncs and drives the app lifecycle (pause, resume, shutdown). [App] is the
// headless runtime behind cmd/client, which wires an engine from config and
// logs what it does.
package client
