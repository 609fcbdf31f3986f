package config

import (
	"github.com/silogic/edactl/internal/locate"
)

// LocateSpec converts a tool entry into the discovery spec for its
// driver binary.
func (t ToolConfig) LocateSpec() locate.Spec {
	return locate.Spec{
		Tool:        t.Driver,
		Candidates:  t.Candidates,
		VerifyArgs:  t.VerifyArgs,
		VerifyLimit: t.VerifyWindow(),
	}
}
