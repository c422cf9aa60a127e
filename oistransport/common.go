// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package oistransport

import "time"

// readPollTimeout bounds how long a single Read blocks on a quiet serial
// line before returning (0, nil), so a caller's Poll loop never hangs
// waiting for bytes that may never arrive.
const readPollTimeout = 20 * time.Millisecond
