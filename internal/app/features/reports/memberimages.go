// internal/app/features/reports/memberimages.go
package reports

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dalemusser/usersvc/internal/app/system/directory"
	"github.com/dalemusser/usersvc/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// MembersWithoutImagesFile is the report's file name.
const MembersWithoutImagesFile = "members_without_images.csv"

// MembersWithoutImagesHeader is the report's single column.
const MembersWithoutImagesHeader = "email IDs"

// lookupChunk bounds the number of uids in one directory OR filter.
const lookupChunk = 100

// ClubSource lists current club members.
type ClubSource interface {
	ActiveClubIDs(ctx context.Context) ([]string, error)
	CurrentMemberUIDs(ctx context.Context, cids []string, year int) ([]string, error)
}

// ImageSource narrows uids to those without a profile image.
type ImageSource interface {
	UIDsWithoutImage(ctx context.Context, uids []string) ([]string, error)
}

// Generator builds the members-without-images report.
type Generator struct {
	Clubs ClubSource
	Users ImageSource
	Dir   directory.Searcher
	Log   *zap.Logger
}

// MembersWithoutImages returns one row per current member of an active
// club whose user record has no image, ordered by uid. A row is the
// member's directory email, or a note when the directory has none.
func (g *Generator) MembersWithoutImages(ctx context.Context, year int) ([]string, error) {
	cids, err := g.Clubs.ActiveClubIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active clubs: %w", err)
	}
	members, err := g.Clubs.CurrentMemberUIDs(ctx, cids, year)
	if err != nil {
		return nil, fmt.Errorf("load club members: %w", err)
	}
	uids, err := g.Users.UIDsWithoutImage(ctx, members)
	if err != nil {
		return nil, fmt.Errorf("load users without image: %w", err)
	}

	emails := make(map[string]string, len(uids))
	for start := 0; start < len(uids); start += lookupChunk {
		end := min(start+lookupChunk, len(uids))
		if err := g.lookupEmails(ctx, uids[start:end], emails); err != nil {
			return nil, err
		}
	}

	rows := make([]string, 0, len(uids))
	for _, uid := range uids {
		if mail, ok := emails[uid]; ok {
			rows = append(rows, mail)
		} else {
			rows = append(rows, "Could not find email for "+uid+" in LDAP")
		}
	}
	g.log().Info("members without images",
		zap.Int("clubs", len(cids)),
		zap.Int("members", len(members)),
		zap.Int("rows", len(rows)),
		zap.Int("missing_email", len(uids)-len(emails)),
	)
	return rows, nil
}

func (g *Generator) lookupEmails(ctx context.Context, uids []string, into map[string]string) error {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Directory(), g.log(), "report email lookup")
	defer cancel()

	entries, err := g.Dir.Search(ctx, directory.ByUIDs(uids))
	if err != nil {
		return fmt.Errorf("directory lookup: %w", err)
	}
	for _, e := range entries {
		uid, ok := e.FirstAttribute("uid")
		if !ok {
			continue
		}
		if mail, ok := e.FirstAttribute("mail"); ok {
			into[strings.ToLower(uid)] = mail
		}
	}
	return nil
}

func (g *Generator) log() *zap.Logger {
	if g.Log == nil {
		return zap.NewNop()
	}
	return g.Log
}

// WriteCSV writes rows under the report header.
func WriteCSV(w io.Writer, rows []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{MembersWithoutImagesHeader}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write([]string{row}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile generates the report and writes it to dir, returning the path.
// The file is written under a temporary name and renamed into place.
func WriteFile(ctx context.Context, g *Generator, dir string, year int) (string, error) {
	rows, err := g.MembersWithoutImages(ctx, year)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, MembersWithoutImagesFile)
	tmp, err := os.CreateTemp(dir, MembersWithoutImagesFile+".*")
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, rows); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
