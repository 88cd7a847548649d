// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package handler

import "errors"

// errNoHandlersAreCreated is returned when the remote has no API address.
var errNoHandlersAreCreated = errors.New("no handlers are created")
