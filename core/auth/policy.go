package auth

import (
	"tunebox/config"
	"tunebox/model"
)

// Action names a song mutation subject to authorization.
type Action string

const (
	ActionAttachImage Action = "attach_image"
	ActionDelete      Action = "delete"
)

// Policy decides whether a caller may perform action on song. caller is nil
// when the identity has no profile row yet.
type Policy interface {
	Allow(id *Identity, caller *model.User, song *model.Song, action Action) bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(id *Identity, caller *model.User, song *model.Song, action Action) bool

func (f PolicyFunc) Allow(id *Identity, caller *model.User, song *model.Song, action Action) bool {
	return f(id, caller, song, action)
}

// OwnerPolicy 只允许歌曲所有者操作
type OwnerPolicy struct{}

func (OwnerPolicy) Allow(_ *Identity, caller *model.User, song *model.Song, _ Action) bool {
	return caller != nil && song != nil && caller.ID == song.OwnerID
}

// AdminPolicy 允许配置中列出的管理员令牌执行任意操作
type AdminPolicy struct {
	tokens map[string]struct{}
}

// NewAdminPolicy builds an AdminPolicy from token identifiers.
func NewAdminPolicy(tokens []string) AdminPolicy {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return AdminPolicy{tokens: set}
}

func (p AdminPolicy) Allow(id *Identity, _ *model.User, _ *model.Song, _ Action) bool {
	if id == nil {
		return false
	}
	_, ok := p.tokens[id.TokenIdentifier]
	return ok
}

type anyOf []Policy

// AnyOf allows the action when at least one policy does.
func AnyOf(policies ...Policy) Policy {
	return anyOf(policies)
}

func (a anyOf) Allow(id *Identity, caller *model.User, song *model.Song, action Action) bool {
	for _, p := range a {
		if p.Allow(id, caller, song, action) {
			return true
		}
	}
	return false
}

// AllowAll admits every authenticated caller.
var AllowAll Policy = PolicyFunc(func(id *Identity, _ *model.User, _ *model.Song, _ Action) bool {
	return id != nil
})

// DefaultPolicy 所有者或管理员
func DefaultPolicy(adminTokens []string) Policy {
	return AnyOf(OwnerPolicy{}, NewAdminPolicy(adminTokens))
}

// PolicyFor picks the policy named by AUTH_POLICY: "open" admits every
// authenticated caller, anything else is DefaultPolicy.
func PolicyFor(mode string, adminTokens []string) Policy {
	if mode == config.AuthPolicyOpen {
		return AllowAll
	}
	return DefaultPolicy(adminTokens)
}
