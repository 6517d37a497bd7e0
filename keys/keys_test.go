/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package keys

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragamala/catalogstore/errors"
)

func TestEncodeLatest(t *testing.T) {
	tuple, err := Encode(KindComposition, "comp-1")
	require.NoError(t, err)
	assert.Equal(t, "COMPOSITION#comp-1", tuple.PK)
	assert.Equal(t, "LATEST", tuple.SK)
}

func TestEncodeVersion(t *testing.T) {
	tuple, err := Encode(KindRaga, "raga-1", "42")
	require.NoError(t, err)
	assert.Equal(t, "RAGA#raga-1", tuple.PK)
	assert.Equal(t, "VERSION#000042", tuple.SK)
}

func TestEncodeAttribution(t *testing.T) {
	tuple, err := Encode(KindAttribution, "comp-1", "artist-1")
	require.NoError(t, err)
	assert.Equal(t, "COMPOSITION#comp-1", tuple.PK)
	assert.Equal(t, "ARTIST#artist-1", tuple.SK)
}

func TestEncodeRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		kind Kind
		ids  []string
	}{
		{"empty id", KindComposition, []string{""}},
		{"delimiter in id", KindComposition, []string{"comp#1"}},
		{"no ids", KindArtist, []string{}},
		{"too many ids", KindTala, []string{"a", "1", "x"}},
		{"zero version", KindRaga, []string{"raga-1", "0"}},
		{"negative version", KindRaga, []string{"raga-1", "-3"}},
		{"padded version", KindRaga, []string{"raga-1", "007"}},
		{"non-numeric version", KindRaga, []string{"raga-1", "latest"}},
		{"attribution single id", KindAttribution, []string{"comp-1"}},
		{"unknown kind", Kind("CONCERT"), []string{"x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Encode(tc.kind, tc.ids...)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidKey(err))
		})
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		kind Kind
		ids  []string
	}{
		{KindComposition, []string{"comp-1"}},
		{KindComposition, []string{"comp-1", "7"}},
		{KindArtist, []string{"artist-1"}},
		{KindRaga, []string{"raga-1", "123"}},
		{KindTala, []string{"tala-1"}},
		{KindAttribution, []string{"comp-1", "artist-1"}},
	}
	for _, tc := range cases {
		tuple, err := Encode(tc.kind, tc.ids...)
		require.NoError(t, err)
		kind, ids, err := Decode(tuple.PK, tuple.SK)
		require.NoError(t, err)
		assert.Equal(t, tc.kind, kind)
		assert.Equal(t, tc.ids, ids)
	}
}

func TestDecodeDisambiguatesAttributionFromComposition(t *testing.T) {
	kind, ids, err := Decode("COMPOSITION#comp-1", "ARTIST#artist-1")
	require.NoError(t, err)
	assert.Equal(t, KindAttribution, kind)
	assert.Equal(t, []string{"comp-1", "artist-1"}, ids)

	kind, ids, err = Decode("COMPOSITION#comp-1", "LATEST")
	require.NoError(t, err)
	assert.Equal(t, KindComposition, kind)
	assert.Equal(t, []string{"comp-1"}, ids)
}

func TestDecodeRejectsMalformedKeys(t *testing.T) {
	cases := []struct{ pk, sk string }{
		{"COMPOSITION", "LATEST"},
		{"COMPOSITION#", "LATEST"},
		{"CONCERT#x", "LATEST"},
		{"COMPOSITION#comp-1", "VERSION#"},
		{"COMPOSITION#comp-1", "VERSION#abc"},
		{"COMPOSITION#comp-1", "VERSION#-1"},
		{"COMPOSITION#comp-1", "SOMETHING"},
		{"ARTIST#a-1", "ARTIST#b-1"},
	}
	for _, tc := range cases {
		_, _, err := Decode(tc.pk, tc.sk)
		assert.Error(t, err, "pk=%q sk=%q", tc.pk, tc.sk)
		assert.True(t, errors.IsInvalidKey(err))
	}
}

func TestVersionSKOrdersLexically(t *testing.T) {
	assert.Less(t, VersionSK(9), VersionSK(10))
	assert.Less(t, VersionSK(99), VersionSK(100))
	assert.Less(t, VersionSK(1), VersionSK(999999))
}

func TestAttributesOmitsEmptySlots(t *testing.T) {
	tuple := KeyTuple{PK: "ARTIST#a-1", SK: "LATEST"}
	tuple.GSI[0] = Pair{PK: "KIND#ARTIST", SK: "tyagaraja"}
	tuple.GSI[5] = Pair{PK: "KIND#ARTIST#POPULAR", SK: "POP#000000000042"}

	attrs := tuple.Attributes()
	assert.Len(t, attrs, 6)
	assert.Equal(t, "KIND#ARTIST", attrs["gsi1pk"])
	assert.Equal(t, "POP#000000000042", attrs["gsi6sk"])
	_, present := attrs["gsi2pk"]
	assert.False(t, present)
}

func TestPopularityGSIClampsNegativeScores(t *testing.T) {
	pair := PopularityGSI(KindComposition, -5)
	assert.Equal(t, "POP#000000000000", pair.SK)
}

func TestLetterGSILowercasesPartition(t *testing.T) {
	pair := LetterGSI(KindComposition, "Vathapi Ganapathim")
	assert.Equal(t, "COMPOSITION#LETTER#v", pair.PK)
	assert.Equal(t, "vathapi ganapathim", pair.SK)
	assert.Equal(t, Pair{}, LetterGSI(KindComposition, "   "))
}

func TestLetterGSIBucketsByFirstRune(t *testing.T) {
	// Multibyte scripts bucket on the whole first rune, never a lone byte.
	pair := LetterGSI(KindComposition, "ಕೃತಿ ರಚನೆ")
	assert.Equal(t, "COMPOSITION#LETTER#ಕ", pair.PK)
	assert.Equal(t, "ಕೃತಿ ರಚನೆ", pair.SK)
	assert.True(t, utf8.ValidString(pair.PK))

	pair = LetterGSI(KindRaga, "श्री")
	assert.Equal(t, "RAGA#LETTER#श", pair.PK)

	// Invalid bytes are replaced so both key parts stay valid UTF-8.
	pair = LetterGSI(KindComposition, "\xe0broken")
	assert.True(t, utf8.ValidString(pair.PK))
	assert.True(t, utf8.ValidString(pair.SK))
	assert.Equal(t, "COMPOSITION#LETTER#�", pair.PK)
}

func TestIndexAttrNames(t *testing.T) {
	pk, sk, err := IndexAttrNames("")
	require.NoError(t, err)
	assert.Equal(t, "pk", pk)
	assert.Equal(t, "sk", sk)

	pk, sk, err = IndexAttrNames("gsi4")
	require.NoError(t, err)
	assert.Equal(t, "gsi4pk", pk)
	assert.Equal(t, "gsi4sk", sk)

	_, _, err = IndexAttrNames("gsi7")
	assert.True(t, errors.IsInvalidKey(err))
}
