package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jacentio/tether/attach"
	"github.com/jacentio/tether/user"
)

func validateOutputFormat(output string) error {
	if output != "text" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'text' or 'json'", output)
	}
	return nil
}

type authTypeView struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type principalView struct {
	ID          string    `json:"id"`
	PrincipalID string    `json:"principalId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type joinedView struct {
	principalView
	AuthType *authTypeView `json:"authType"`
}

func newAuthTypeView(e *user.AuthTypeEntity) authTypeView {
	return authTypeView{ID: e.ID(), Source: e.Source().String(), CreatedAt: e.CreatedAt(), UpdatedAt: e.UpdatedAt()}
}

func newPrincipalView(e *user.PrincipalEntity) principalView {
	return principalView{ID: e.ID(), PrincipalID: e.PrincipalID(), CreatedAt: e.CreatedAt(), UpdatedAt: e.UpdatedAt()}
}

func newJoinedView(j attach.Joined[*user.PrincipalEntity, *user.AuthTypeEntity]) joinedView {
	v := joinedView{principalView: newPrincipalView(j.Entity)}
	if j.Found {
		at := newAuthTypeView(j.Principal)
		v.AuthType = &at
	}
	return v
}

// print writes v as indented JSON, or text through the given formatter.
func (a *app) print(v any, text func() string) error {
	if a.output == "json" {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(a.out, text())
	return err
}

func (v authTypeView) String() string {
	return fmt.Sprintf("%s\t%s", v.ID, v.Source)
}

func (v principalView) String() string {
	principalID := v.PrincipalID
	if principalID == "" {
		principalID = "-"
	}
	return fmt.Sprintf("%s\t%s", v.ID, principalID)
}

func (v joinedView) String() string {
	if v.AuthType == nil {
		return v.principalView.String() + "\t-"
	}
	return v.principalView.String() + "\t" + v.AuthType.Source
}

// printList writes items as a JSON array, or one line per item.
func printList[T fmt.Stringer](a *app, items []T) error {
	if a.output == "json" {
		if items == nil {
			items = []T{}
		}
		return a.print(items, nil)
	}
	for _, item := range items {
		if _, err := fmt.Fprintln(a.out, item.String()); err != nil {
			return err
		}
	}
	return nil
}

type deleteResult struct {
	Deleted  int64 `json:"deleted"`
	Detached int64 `json:"detached"`
}

func (r deleteResult) String() string {
	return fmt.Sprintf("deleted %d, detached %d", r.Deleted, r.Detached)
}

type countResult struct {
	Count int64 `json:"count"`
}

func (r countResult) String() string { return fmt.Sprint(r.Count) }
