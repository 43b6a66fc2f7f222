package harness

import (
	"fmt"
	"strconv"

	"github.com/roach88/ombu/internal/model"
)

// args are the YAML-decoded arguments of a step. yaml.v3 yields int for
// integers, so 256-bit values are written as strings.
type args map[string]interface{}

func (a args) raw(key string) (interface{}, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("missing arg %q", key)
	}
	return v, nil
}

func (a args) text(key string) (string, error) {
	v, err := a.raw(key)
	if err != nil {
		return "", err
	}
	switch val := v.(type) {
	case string:
		return val, nil
	case int:
		return strconv.Itoa(val), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	default:
		return "", fmt.Errorf("arg %q: expected string or integer, got %T", key, v)
	}
}

func (a args) textOr(key, def string) (string, error) {
	if _, ok := a[key]; !ok {
		return def, nil
	}
	return a.text(key)
}

func (a args) uint(key string) (uint64, error) {
	s, err := a.text(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("arg %q: %w", key, err)
	}
	return n, nil
}

func (a args) uintOr(key string, def uint64) (uint64, error) {
	if _, ok := a[key]; !ok {
		return def, nil
	}
	return a.uint(key)
}

func (a args) boolean(key string) (bool, error) {
	v, err := a.raw(key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("arg %q: expected bool, got %T", key, v)
	}
	return b, nil
}

func (a args) group() (model.GroupID, error) {
	s, err := a.text("group")
	if err != nil {
		return model.GroupID{}, err
	}
	return model.ParseGroupID(s)
}

func (a args) post() (model.PostID, error) {
	n, err := a.uint("post")
	return model.PostID(n), err
}

func (a args) subPost() (model.SubPostID, error) {
	n, err := a.uintOr("sub_post", uint64(model.FixedSubPostID))
	return model.SubPostID(n), err
}

func (a args) commitment() (model.Commitment, error) {
	s, err := a.text("commitment")
	if err != nil {
		return model.Commitment{}, err
	}
	return model.ParseCommitment(s)
}

func (a args) account(key string) (model.Address, error) {
	s, err := a.text(key)
	if err != nil {
		return model.Address{}, err
	}
	return ResolveAccount(s)
}

func (a args) words(key string) ([]model.Word, error) {
	v, ok := a[key]
	if !ok {
		return nil, nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("arg %q: expected list, got %T", key, v)
	}
	out := make([]model.Word, 0, len(list))
	for i, item := range list {
		w, err := args{"w": item}.text("w")
		if err != nil {
			return nil, fmt.Errorf("arg %q[%d]: %w", key, i, err)
		}
		word, err := model.ParseWord(w)
		if err != nil {
			return nil, fmt.Errorf("arg %q[%d]: %w", key, i, err)
		}
		out = append(out, word)
	}
	return out, nil
}
