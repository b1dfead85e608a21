/* Copyright (c) 2017 Jeffrey Massung
 *
 * This software is provided 'as-is', without any express or implied
 * warranty.  In no event will the authors be held liable for any damages
 * arising from the use of this software.
 *
 * Permission is granted to anyone to use this software for any purpose,
 * including commercial applications, and to alter it and redistribute it
 * freely, subject to the following restrictions:
 *
 * 1. The origin of this software must not be misrepresented; you must not
 *    claim that you wrote the original software. If you use this software
 *    in a product, an acknowledgment in the product documentation would be
 *    appreciated but is not required.
 *
 * 2. Altered source versions must be plainly marked as such, and must not be
 *    misrepresented as being the original software.
 *
 * 3. This notice may not be removed or altered from any source distribution.
 */

package main

import (
	"fmt"
	"os"
	"strings"
)

// Logger writes status lines to stderr. This demo has no bitmap font
// asset to render a log panel into the SDL window with, so there is no
// scrollback to manage -- just a place for main/input to route messages
// through instead of calling fmt.Fprintln directly.
type Logger struct{}

// NewLog creates a new Logger.
func NewLog() *Logger {
	return &Logger{}
}

// Log outputs a new line to the log.
func (log *Logger) Log(s ...string) {
	fmt.Fprintln(os.Stderr, strings.Join(s, " "))
}

// Logln outputs a new line to the log, with an empty line prefixed.
func (log *Logger) Logln(s ...string) {
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, strings.Join(s, " "))
}
