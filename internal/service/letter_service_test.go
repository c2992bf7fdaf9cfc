package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"suratku-server/internal/domain"

	"go.uber.org/zap"
)

func TestLetterService_CreateLetter(t *testing.T) {
	ctx := context.Background()
	letters := newMockLetterRepository()
	institutions := newMockInstitutionRepository()
	clock := newStubClock()
	service := NewLetterService(letters, institutions, fixedIdentity("user-1"), clock, &stubIDs{}, zap.NewNop())

	institution, err := service.CreateInstitution(ctx, &domain.CreateInstitutionRequest{Name: "Dinas Kominfo", Slug: "kominfo"})
	if err != nil {
		t.Fatalf("CreateInstitution() error = %v", err)
	}
	if !institution.IsActive {
		t.Error("new institution should be active")
	}

	tests := []struct {
		name    string
		req     *domain.CreateLetterRequest
		wantErr error
	}{
		{
			name: "valid letter",
			req: &domain.CreateLetterRequest{
				InstitutionID: institution.ID,
				LetterNumber:  "SK-2024/01/007",
				Subject:       "Undangan Rapat",
				Recipient:     "Kepala Dinas",
				Content:       "Dengan hormat...",
			},
		},
		{
			name: "unknown institution",
			req: &domain.CreateLetterRequest{
				InstitutionID: "nope",
				LetterNumber:  "SK-2024/01/008",
				Subject:       "x",
				Recipient:     "y",
				Content:       "z",
			},
			wantErr: ErrInstitutionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			letter, err := service.CreateLetter(ctx, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CreateLetter() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateLetter() error = %v", err)
			}

			if letter.IsSigned || letter.DocumentHash != "" {
				t.Error("new letter must start unsigned")
			}
			if letter.CreatedBy != "user-1" {
				t.Errorf("CreatedBy = %q", letter.CreatedBy)
			}
			if letter.Status != domain.LetterStatusInProgress {
				t.Errorf("Status = %q", letter.Status)
			}

			got, err := service.GetLetter(ctx, letter.ID)
			if err != nil {
				t.Fatalf("GetLetter() error = %v", err)
			}
			if got.Content != tt.req.Content {
				t.Errorf("GetLetter() content = %q", got.Content)
			}
		})
	}
}

func TestLetterService_CreateLetterRequiresIdentity(t *testing.T) {
	ctx := context.Background()
	institutions := newMockInstitutionRepository()
	institutions.Create(ctx, &domain.Institution{ID: "inst-1", Name: "Dinas"})
	service := NewLetterService(newMockLetterRepository(), institutions, noIdentity(), newStubClock(), &stubIDs{}, zap.NewNop())

	_, err := service.CreateLetter(ctx, &domain.CreateLetterRequest{
		InstitutionID: "inst-1",
		LetterNumber:  "SK-1",
		Subject:       "s",
		Recipient:     "r",
		Content:       "c",
	})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("CreateLetter() error = %v, want ErrUnauthenticated", err)
	}
}

func TestLetterService_ListLetters(t *testing.T) {
	ctx := context.Background()
	letters := newMockLetterRepository()
	clock := newStubClock()
	service := NewLetterService(letters, newMockInstitutionRepository(), fixedIdentity("user-1"), clock, &stubIDs{}, zap.NewNop())

	base := clock.Now()
	letters.Create(ctx, &domain.Letter{ID: "a", InstitutionID: "inst-1", CreatedAt: base})
	letters.Create(ctx, &domain.Letter{ID: "b", InstitutionID: "inst-1", CreatedAt: base.Add(time.Hour)})
	letters.Create(ctx, &domain.Letter{ID: "c", InstitutionID: "inst-2", CreatedAt: base.Add(2 * time.Hour)})

	all, err := service.ListLetters(ctx, "")
	if err != nil {
		t.Fatalf("ListLetters() error = %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" {
		t.Errorf("ListLetters(\"\") = %d letters, first %v", len(all), all[0].ID)
	}

	scoped, _ := service.ListLetters(ctx, "inst-1")
	if len(scoped) != 2 || scoped[0].ID != "b" {
		t.Errorf("ListLetters(inst-1) = %+v", scoped)
	}

	none, _ := service.ListLetters(ctx, "inst-9")
	if none == nil || len(none) != 0 {
		t.Errorf("ListLetters(inst-9) = %v, want empty slice", none)
	}

	if _, err := service.GetLetter(ctx, "zzz"); !errors.Is(err, ErrLetterNotFound) {
		t.Errorf("GetLetter() error = %v, want ErrLetterNotFound", err)
	}
}
