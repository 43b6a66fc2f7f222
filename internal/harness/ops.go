package harness

import (
	"github.com/roach88/ombu/internal/engine"
	"github.com/roach88/ombu/internal/model"
)

// operation runs one forum call and returns its result fields.
type operation func(r *runner, sender model.Address, a args) (map[string]interface{}, error)

var operations = map[string]operation{
	engine.OpInit:                opInit,
	engine.OpCreateGroup:         opCreateGroup,
	engine.OpCreateMainPost:      opCreateMainPost,
	engine.OpCreateSubPost:       opCreateSubPost,
	engine.OpVoteOnPost:          opVote(false, true),
	engine.OpVoteOnSubPost:       opVote(true, true),
	engine.OpDeleteVoteOnPost:    opVote(false, false),
	engine.OpDeleteVoteOnSubPost: opVote(true, false),
	engine.OpAddMember:           opAddMember,
	engine.OpRemoveMember:        opRemoveMember,
	engine.OpChangeAdmin:         opChangeAdmin,
	engine.OpChangeGroupAdmin:    opChangeGroupAdmin,
	engine.OpAcceptGroupAdmin:    opAcceptGroupAdmin,
	engine.OpIsGroupMember:       opIsGroupMember,
}

// parser reads args, keeping the first error.
type parser struct {
	a   args
	err error
}

func (p *parser) keep(err error) {
	if p.err == nil && err != nil {
		p.err = &argError{err: err}
	}
}

func (p *parser) group() model.GroupID {
	g, err := p.a.group()
	p.keep(err)
	return g
}

func (p *parser) post() model.PostID {
	id, err := p.a.post()
	p.keep(err)
	return id
}

func (p *parser) subPost() model.SubPostID {
	id, err := p.a.subPost()
	p.keep(err)
	return id
}

func (p *parser) commitment() model.Commitment {
	c, err := p.a.commitment()
	p.keep(err)
	return c
}

func (p *parser) account(key string) model.Address {
	addr, err := p.a.account(key)
	p.keep(err)
	return addr
}

func (p *parser) text(key string) string {
	s, err := p.a.text(key)
	p.keep(err)
	return s
}

func (p *parser) boolean(key string) bool {
	b, err := p.a.boolean(key)
	p.keep(err)
	return b
}

func (p *parser) words(key string) []model.Word {
	w, err := p.a.words(key)
	p.keep(err)
	return w
}

// proof builds a proof from the optional depth and nullifier args. Each
// generated proof gets a fresh nullifier.
func (p *parser) proof(r *runner) model.Proof {
	depth, err := p.a.uintOr("depth", DefaultDepth)
	p.keep(err)

	var nullifier model.Word
	if _, ok := p.a["nullifier"]; ok {
		s := p.text("nullifier")
		if p.err == nil {
			nullifier, err = model.ParseWord(s)
			p.keep(err)
		}
	} else {
		r.nullifier++
		nullifier = model.NewWord(r.nullifier)
	}
	return model.Proof{
		MerkleTreeDepth: model.NewWord(depth),
		Nullifier:       nullifier,
	}
}

func opInit(r *runner, sender model.Address, a args) (map[string]interface{}, error) {
	p := &parser{a: a}
	orc := OracleAddress
	if _, ok := a["oracle"]; ok {
		orc = p.account("oracle")
	}
	if p.err != nil {
		return nil, p.err
	}
	return nil, r.forum.Init(r.ctx, sender, orc)
}

func opCreateGroup(r *runner, sender model.Address, a args) (map[string]interface{}, error) {
	p := &parser{a: a}
	name := p.text("name")
	if p.err != nil {
		return nil, p.err
	}
	id, err := r.forum.CreateGroup(r.ctx, sender, name)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"group_id": id.String()}, nil
}

func opCreateMainPost(r *runner, _ model.Address, a args) (map[string]interface{}, error) {
	p := &parser{a: a}
	group := p.group()
	content := p.text("content")
	proof := p.proof(r)
	if p.err != nil {
		return nil, p.err
	}
	id, err := r.forum.CreateMainPost(r.ctx, group, proof, content)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"post_id": uint64(id)}, nil
}

func opCreateSubPost(r *runner, _ model.Address, a args) (map[string]interface{}, error) {
	p := &parser{a: a}
	group := p.group()
	post := p.post()
	content := p.text("content")
	proof := p.proof(r)
	if p.err != nil {
		return nil, p.err
	}
	id, err := r.forum.CreateSubPost(r.ctx, group, post, proof, content)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"sub_post_id": uint64(id)}, nil
}

func opVote(sub, cast bool) operation {
	return func(r *runner, sender model.Address, a args) (map[string]interface{}, error) {
		p := &parser{a: a}
		group := p.group()
		post := p.post()
		up := p.boolean("up")
		c := p.commitment()
		var subID model.SubPostID
		if sub {
			subID = p.subPost()
		}
		if p.err != nil {
			return nil, p.err
		}

		switch {
		case sub && cast:
			return nil, r.forum.VoteOnSubPost(r.ctx, sender, group, post, subID, up, c)
		case sub:
			return nil, r.forum.DeleteVoteOnSubPost(r.ctx, sender, group, post, subID, up, c)
		case cast:
			return nil, r.forum.VoteOnPost(r.ctx, sender, group, post, up, c)
		default:
			return nil, r.forum.DeleteVoteOnPost(r.ctx, sender, group, post, up, c)
		}
	}
}

func opAddMember(r *runner, _ model.Address, a args) (map[string]interface{}, error) {
	p := &parser{a: a}
	group := p.group()
	c := p.commitment()
	if p.err != nil {
		return nil, p.err
	}
	return nil, r.forum.AddMember(r.ctx, group, c)
}

func opRemoveMember(r *runner, sender model.Address, a args) (map[string]interface{}, error) {
	p := &parser{a: a}
	group := p.group()
	c := p.commitment()
	siblings := p.words("siblings")
	if p.err != nil {
		return nil, p.err
	}
	return nil, r.forum.RemoveMember(r.ctx, sender, group, c, siblings)
}

func opChangeAdmin(r *runner, sender model.Address, a args) (map[string]interface{}, error) {
	p := &parser{a: a}
	next := p.account("new_admin")
	if p.err != nil {
		return nil, p.err
	}
	return nil, r.forum.ChangeAdmin(r.ctx, sender, next)
}

func opChangeGroupAdmin(r *runner, _ model.Address, a args) (map[string]interface{}, error) {
	p := &parser{a: a}
	group := p.group()
	next := p.account("new_admin")
	if p.err != nil {
		return nil, p.err
	}
	return nil, r.forum.ChangeGroupAdmin(r.ctx, group, next)
}

func opAcceptGroupAdmin(r *runner, _ model.Address, a args) (map[string]interface{}, error) {
	p := &parser{a: a}
	group := p.group()
	if p.err != nil {
		return nil, p.err
	}
	return nil, r.forum.AcceptGroupAdmin(r.ctx, group)
}

func opIsGroupMember(r *runner, _ model.Address, a args) (map[string]interface{}, error) {
	p := &parser{a: a}
	group := p.group()
	c := p.commitment()
	if p.err != nil {
		return nil, p.err
	}
	member, err := r.forum.IsGroupMember(r.ctx, group, c)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"member": member}, nil
}
