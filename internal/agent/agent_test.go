package agent

import "testing"

func TestInviteIsIdempotentOnUID(t *testing.T) {
	r := NewRoster()
	r.Invite(Agent{UID: "a1", DisplayName: "Alice", Credential: "c1"})
	r.AssignIssue("a1", "issue-1")
	r.Invite(Agent{UID: "a1", DisplayName: "Alice V2", Credential: "c2"})

	a, ok := r.Get("a1")
	if !ok {
		t.Fatalf("expected agent to exist")
	}
	if a.DisplayName != "Alice V2" || a.Credential != "c2" {
		t.Fatalf("expected re-invite to update fields in place, got %+v", a)
	}
	issueID, assigned := r.AssignedIssue("a1")
	if !assigned || issueID != "issue-1" {
		t.Fatalf("expected issue assignment preserved across re-invite")
	}
}

func TestAuthenticateResolvesByCredential(t *testing.T) {
	r := NewRoster()
	r.Invite(Agent{UID: "a1", Credential: "secret-1"})
	a, ok := r.Authenticate("secret-1")
	if !ok || a.UID != "a1" {
		t.Fatalf("expected to resolve a1, got ok=%v a=%+v", ok, a)
	}
	if _, ok := r.Authenticate("unknown"); ok {
		t.Fatalf("expected unknown credential to fail")
	}
}

func TestUIDsReturnsSortedOrder(t *testing.T) {
	r := NewRoster()
	r.Invite(Agent{UID: "charlie"})
	r.Invite(Agent{UID: "alice"})
	r.Invite(Agent{UID: "bob"})

	got := r.UIDs()
	want := []string{"alice", "bob", "charlie"}
	if len(got) != len(want) {
		t.Fatalf("expected %d uids, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected sorted order %v, got %v", want, got)
		}
	}
}
