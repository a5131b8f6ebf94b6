package profiles

import (
	"testing"

	"github.com/dalemusser/usersvc/internal/app/system/directory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(dn string, attrs map[string][]string) directory.Entry {
	return directory.NewEntry(dn, attrs)
}

func TestToProfile_Full(t *testing.T) {
	e := entry("uid=ada.lovelace,ou=cse,ou=ug2k19,ou=Users,dc=iiit,dc=ac,dc=in", map[string][]string{
		"uid":       {"Ada.Lovelace"},
		"cn":        {"Ada  King Lovelace"},
		"mail":      {"ada.lovelace@students.iiit.ac.in"},
		"gender":    {"F"},
		"uidNumber": {"2019101001"},
		"sambaSID":  {"S-1-5-21"},
	})

	p := ToProfile(e)
	assert.Equal(t, "ada.lovelace", p.UID)
	assert.Equal(t, "Ada", p.FirstName)
	assert.Equal(t, "King Lovelace", p.LastName)
	require.NotNil(t, p.Email)
	assert.Equal(t, "ada.lovelace@students.iiit.ac.in", *p.Email)
	require.NotNil(t, p.Gender)
	assert.Equal(t, "F", *p.Gender)
	require.NotNil(t, p.RollNo)
	assert.Equal(t, "2019101001", *p.RollNo)
	require.NotNil(t, p.Stream)
	assert.Equal(t, "cse", *p.Stream)
	require.NotNil(t, p.Batch)
	assert.Equal(t, "ug2k19", *p.Batch)
	require.NotNil(t, p.BatchYear)
	assert.Equal(t, "19", *p.BatchYear)
}

func TestToProfile_DualSuffixStrippedCaseInsensitively(t *testing.T) {
	for _, ou := range []string{"ug2k19dual", "ug2k19DUAL", "ug2k19Dual"} {
		t.Run(ou, func(t *testing.T) {
			p := ToProfile(entry("uid=x.y,ou=ece,ou="+ou+",ou=Users,dc=iiit,dc=ac,dc=in",
				map[string][]string{"uid": {"x.y"}}))
			require.NotNil(t, p.Batch)
			assert.Equal(t, "ug2k19", *p.Batch)
			assert.Equal(t, "19", *p.BatchYear)
		})
	}
}

func TestToProfile_GivenNameAndSurname(t *testing.T) {
	p := ToProfile(entry("uid=g.h,ou=Users,dc=x", map[string][]string{
		"uid":       {"g.h"},
		"givenName": {"Grace"},
		"sn":        {"Hopper"},
	}))
	assert.Equal(t, "Grace", p.FirstName)
	assert.Equal(t, "Hopper", p.LastName)
}

func TestToProfile_NameFromUID(t *testing.T) {
	p := ToProfile(entry("uid=alan.turing,dc=x", map[string][]string{
		"uid":       {"alan.turing"},
		"givenName": {"Alan"}, // sn missing, so ignored
	}))
	assert.Equal(t, "Alan", p.FirstName)
	assert.Equal(t, "Turing", p.LastName)
}

func TestToProfile_UIDWithoutDot(t *testing.T) {
	p := ToProfile(entry("uid=root,dc=x", map[string][]string{"uid": {"root"}}))
	assert.Equal(t, "Root", p.FirstName)
	assert.Equal(t, "", p.LastName)
}

func TestToProfile_MissingOptionals(t *testing.T) {
	p := ToProfile(entry("uid=a.b,ou=Users,dc=x", map[string][]string{
		"uid": {"a.b"},
		"cn":  {"A B"},
	}))
	assert.Nil(t, p.Email)
	assert.Nil(t, p.Gender)
	assert.Nil(t, p.RollNo)
	assert.Nil(t, p.Batch)
	assert.Nil(t, p.BatchYear)
	require.NotNil(t, p.Stream)
	assert.Equal(t, "Users", *p.Stream)
}

func TestToProfile_RollNoFallsBackToSambaSID(t *testing.T) {
	p := ToProfile(entry("uid=a.b,dc=x", map[string][]string{
		"uid":      {"a.b"},
		"sambaSID": {"S-1-5-21-1001"},
	}))
	require.NotNil(t, p.RollNo)
	assert.Equal(t, "S-1-5-21-1001", *p.RollNo)
}

func TestOUs(t *testing.T) {
	assert.Equal(t, []string{"cse", "ug2k19", "Users"}, OUs("uid=a,ou=cse,ou=ug2k19,ou=Users,dc=iiit,dc=ac,dc=in"))
	assert.Nil(t, OUs("not a dn"))
	assert.Nil(t, OUs("uid=a,dc=x"))
}

func TestBatchYear(t *testing.T) {
	assert.Equal(t, "21", *BatchYear("phd2k21"))
	assert.Nil(t, BatchYear("staff"))
}

func TestToProfiles_KeepsOrder(t *testing.T) {
	ps := ToProfiles([]directory.Entry{
		entry("uid=b.b,dc=x", map[string][]string{"uid": {"b.b"}}),
		entry("uid=a.a,dc=x", map[string][]string{"uid": {"a.a"}}),
	})
	require.Len(t, ps, 2)
	assert.Equal(t, "b.b", ps[0].UID)
	assert.Equal(t, "a.a", ps[1].UID)
}
