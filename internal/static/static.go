// Package static embeds files served verbatim by the HTTP handler.
package static

import _ "embed"

// SkillMd is the usage doc served at /skill.md for operators and agents.
//
//go:embed skill.md
var SkillMd string
