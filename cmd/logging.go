// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package cmd

import (
	"fmt"

	"github.com/openois/oishub/ois"
	"github.com/rs/zerolog"
)

// zerologLogFunc adapts an ois.LogFunc onto a zerolog.Logger, grounded on
// danmuck-edgectl's InitLogger convention of a single app-wide structured
// logger rather than the teacher's bare log.Printf/fmt.Printf.
func zerologLogFunc(l zerolog.Logger) ois.LogFunc {
	return func(category ois.LogCategory, format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		switch category {
		case ois.LogWarn:
			l.Warn().Msg(msg)
		case ois.LogAssertion:
			l.Error().Msg(msg)
		default:
			l.Debug().Msg(msg)
		}
	}
}
