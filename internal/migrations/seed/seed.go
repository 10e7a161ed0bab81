// Package seed loads catalog entries and users from a JSON file into the
// document store. Re-running it overwrites catalog entries and skips users
// that already exist.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	authservice "staybook/internal/auth/service"
	offeringservice "staybook/internal/offerings/service"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

type User struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type File struct {
	Hotels []*model.HotelDay `json:"hotels"`
	Users  []User            `json:"users"`
}

type Result struct {
	Hotels       int
	Users        int
	SkippedUsers int
}

func Decode(r io.Reader) (*File, error) {
	var f File
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	return &f, nil
}

func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer fh.Close()
	return Decode(fh)
}

func Apply(
	ctx context.Context,
	f *File,
	offerings offeringservice.OfferingService,
	auth authservice.Authenticator,
	log *logger.Logger,
) (*Result, error) {
	res := &Result{}
	for i, day := range f.Hotels {
		if err := offerings.Upsert(ctx, day); err != nil {
			return res, fmt.Errorf("hotel entry %d: %w", i, err)
		}
		res.Hotels++
	}

	for _, u := range f.Users {
		if _, err := auth.Register(ctx, u.Email, u.Name, u.Password); err != nil {
			if apperrors.HasCode(err, apperrors.CodeConflict) {
				log.Info("User already seeded", "email", u.Email)
				res.SkippedUsers++
				continue
			}
			return res, fmt.Errorf("user %s: %w", u.Email, err)
		}
		res.Users++
	}

	log.Info("Seed applied",
		"hotels", res.Hotels,
		"users", res.Users,
		"skipped_users", res.SkippedUsers,
	)
	return res, nil
}
