package auth

import (
	"context"
	"errors"
	"testing"
)

func newTestService(t *testing.T) (*Service, *SQLiteCredentialRepository, *MemorySessionStore) {
	t.Helper()
	repo := NewCredentialRepository(testDB(t))
	store := NewMemorySessionStore(0)
	return NewService(repo, store, nil), repo, store
}

func TestService_LoginVerifyLogout(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	seedTestAdmin(t, repo, "admin", "admin123")

	sess, err := svc.Login(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if sess.Username != "admin" {
		t.Errorf("Username = %q, want admin", sess.Username)
	}
	if !svc.Verify(ctx, sess.Token) {
		t.Fatal("Verify() = false after login")
	}

	if err := svc.Logout(ctx, sess.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if svc.Verify(ctx, sess.Token) {
		t.Error("Verify() = true after logout")
	}
	if err := svc.Logout(ctx, sess.Token); err != nil {
		t.Errorf("second Logout() error = %v", err)
	}
}

func TestService_LoginFailuresIndistinguishable(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()
	seedTestAdmin(t, repo, "admin", "admin123")

	_, errUnknown := svc.Login(ctx, "nobody", "admin123")
	_, errWrong := svc.Login(ctx, "admin", "wrong")

	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", errUnknown)
	}
	if !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", errWrong)
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Errorf("error messages differ: %q vs %q", errUnknown, errWrong)
	}
	if store.Count() != 0 {
		t.Errorf("failed logins created %d sessions", store.Count())
	}
}

func TestService_LoginCorruptHash(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	if _, err := repo.Insert(ctx, "broken", "not-a-phc-string"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := svc.Login(ctx, "broken", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestService_CreateAdminValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"empty username", "", "pw", ErrInvalidUsername},
		{"bad characters", "bad name!", "pw", ErrInvalidUsername},
		{"empty password", "dispatcher", "", ErrPasswordRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAdmin(ctx, tt.username, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateAdmin() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	cred, err := svc.CreateAdmin(ctx, "dispatcher", "pw")
	if err != nil {
		t.Fatalf("CreateAdmin() error = %v", err)
	}
	if _, err := svc.CreateAdmin(ctx, "dispatcher", "pw"); !errors.Is(err, ErrUsernameExists) {
		t.Errorf("duplicate CreateAdmin() error = %v, want ErrUsernameExists", err)
	}
	if _, err := svc.Login(ctx, cred.Username, "pw"); err != nil {
		t.Errorf("Login() as created admin error = %v", err)
	}
}

func TestService_UpdateAdmin(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	cred := seedTestAdmin(t, repo, "alice", "old-pw")

	sess, _ := svc.Login(ctx, "alice", "old-pw")

	// Username only: password unchanged.
	if err := svc.UpdateAdmin(ctx, cred.ID, "alicia", ""); err != nil {
		t.Fatalf("UpdateAdmin(rename) error = %v", err)
	}
	if svc.Verify(ctx, sess.Token) {
		t.Error("rename should end existing sessions")
	}
	if _, err := svc.Login(ctx, "alicia", "old-pw"); err != nil {
		t.Errorf("Login() with old password after rename error = %v", err)
	}

	// Password change.
	if err := svc.UpdateAdmin(ctx, cred.ID, "alicia", "new-pw"); err != nil {
		t.Fatalf("UpdateAdmin(password) error = %v", err)
	}
	if _, err := svc.Login(ctx, "alicia", "old-pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still accepted: %v", err)
	}
	if _, err := svc.Login(ctx, "alicia", "new-pw"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	if err := svc.UpdateAdmin(ctx, 999, "ghost", ""); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("UpdateAdmin(missing) error = %v, want ErrCredentialNotFound", err)
	}
	if err := svc.UpdateAdmin(ctx, cred.ID, "", ""); !errors.Is(err, ErrInvalidUsername) {
		t.Errorf("UpdateAdmin(empty username) error = %v, want ErrInvalidUsername", err)
	}
}

func TestService_UpdateAdminFailureChangesNothing(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	cred := seedTestAdmin(t, repo, "alice", "old-pw")
	sess, _ := svc.Login(ctx, "alice", "old-pw")

	if _, err := repo.db.ExecContext(ctx, `
		CREATE TRIGGER reject_password_change BEFORE UPDATE OF password_hash ON admins
		BEGIN SELECT RAISE(ABORT, 'password change rejected'); END`); err != nil {
		t.Fatalf("creating trigger: %v", err)
	}

	if err := svc.UpdateAdmin(ctx, cred.ID, "alicia", "new-pw"); err == nil {
		t.Fatal("UpdateAdmin() should fail when the password write fails")
	}
	if _, err := svc.Login(ctx, "alice", "old-pw"); err != nil {
		t.Errorf("old username and password rejected after failed update: %v", err)
	}
	if _, err := svc.Login(ctx, "alicia", "old-pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("rename leaked from failed update: %v", err)
	}
	if !svc.Verify(ctx, sess.Token) {
		t.Error("a failed update should not end sessions")
	}
}

func TestService_UpdateAdminSameValuesKeepsSessions(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	cred := seedTestAdmin(t, repo, "alice", "pw")

	sess, _ := svc.Login(ctx, "alice", "pw")
	if err := svc.UpdateAdmin(ctx, cred.ID, "alice", ""); err != nil {
		t.Fatalf("UpdateAdmin() error = %v", err)
	}
	if !svc.Verify(ctx, sess.Token) {
		t.Error("a no-op update should not end sessions")
	}
}

func TestService_SetPasswordRevokesSessions(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	seedTestAdmin(t, repo, "alice", "old")

	sess, _ := svc.Login(ctx, "alice", "old")
	if err := svc.SetPassword(ctx, "alice", "new"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if svc.Verify(ctx, sess.Token) {
		t.Error("password change should end existing sessions")
	}
	if err := svc.SetPassword(ctx, "nobody", "x"); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("SetPassword(missing) error = %v, want ErrCredentialNotFound", err)
	}
	if err := svc.SetPassword(ctx, "alice", ""); !errors.Is(err, ErrPasswordRequired) {
		t.Errorf("SetPassword(empty) error = %v, want ErrPasswordRequired", err)
	}
}

func TestService_DeleteAdmin(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	admin := seedTestAdmin(t, repo, "admin", "pw")
	other := seedTestAdmin(t, repo, "other", "pw")

	sess, _ := svc.Login(ctx, "other", "pw")

	deleted, err := svc.DeleteAdmin(ctx, other.ID)
	if err != nil {
		t.Fatalf("DeleteAdmin() error = %v", err)
	}
	if deleted.Username != "other" {
		t.Errorf("deleted = %q, want other", deleted.Username)
	}
	if svc.Verify(ctx, sess.Token) {
		t.Error("deleted admin's session should be revoked")
	}

	if _, err := svc.DeleteAdmin(ctx, other.ID); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("second DeleteAdmin() error = %v, want ErrCredentialNotFound", err)
	}
	if _, err := svc.DeleteAdmin(ctx, admin.ID); !errors.Is(err, ErrLastCredential) {
		t.Errorf("DeleteAdmin(last) error = %v, want ErrLastCredential", err)
	}
}

func TestService_DeleteAdminByUsername(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	seedTestAdmin(t, repo, "admin", "pw")
	seedTestAdmin(t, repo, "temp", "pw")

	if err := svc.DeleteAdminByUsername(ctx, "temp"); err != nil {
		t.Fatalf("DeleteAdminByUsername() error = %v", err)
	}
	if err := svc.DeleteAdminByUsername(ctx, "temp"); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("second delete error = %v, want ErrCredentialNotFound", err)
	}
}
