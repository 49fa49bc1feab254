package com

import "github.com/rs/xid"

// Uid is a short sortable unique identifier used for
// connections and pending change ids.
type Uid struct {
	xid.ID
}

var NilUid = Uid{xid.NilID()}

func NewUid() Uid { return Uid{xid.New()} }

func UidFrom(v string) (Uid, error) {
	id, err := xid.FromString(v)
	return Uid{id}, err
}

func (u Uid) IsEmpty() bool { return u.IsNil() }
func (u Uid) Short() string { return u.String()[:3] + "." + u.String()[len(u.String())-3:] }
