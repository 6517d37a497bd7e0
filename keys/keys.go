/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package keys

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ragamala/catalogstore/errors"
)

// Kind tags the closed set of entity kinds stored in the catalog table.
type Kind string

const (
	KindComposition Kind = "COMPOSITION"
	KindArtist      Kind = "ARTIST"
	KindRaga        Kind = "RAGA"
	KindTala        Kind = "TALA"
	KindAttribution Kind = "ATTRIBUTION"
)

// Delimiter separates segments inside key strings. Identifiers must not contain it.
const Delimiter = "#"

const (
	latestSK      = "LATEST"
	versionPrefix = "VERSION" + Delimiter
	letterSegment = "LETTER"
	popSegment    = "POPULAR"
	scorePrefix   = "POP" + Delimiter
)

// Pair is one partition/sort key pair of a secondary index slot.
// The zero value marks an unused slot.
type Pair struct {
	PK string
	SK string
}

// KeyTuple is the full six-index key shape of one table row. Unused GSI
// slots stay zero and are omitted from the stored row.
type KeyTuple struct {
	PK  string
	SK  string
	GSI [6]Pair
}

// Attributes flattens the tuple into the row's key attributes
// (pk, sk, gsi1pk, gsi1sk, ... gsi6pk, gsi6sk). Empty slots are absent.
func (t KeyTuple) Attributes() map[string]string {
	attrs := map[string]string{"pk": t.PK, "sk": t.SK}
	for i, p := range t.GSI {
		if p.PK == "" {
			continue
		}
		n := strconv.Itoa(i + 1)
		attrs["gsi"+n+"pk"] = p.PK
		attrs["gsi"+n+"sk"] = p.SK
	}
	return attrs
}

// IndexAttrNames returns the key attribute names for an index.
// An empty index name means the primary key.
func IndexAttrNames(index string) (pkName, skName string, err error) {
	switch index {
	case "":
		return "pk", "sk", nil
	case "gsi1", "gsi2", "gsi3", "gsi4", "gsi5", "gsi6":
		return index + "pk", index + "sk", nil
	default:
		return "", "", errors.NewInvalidKeyError("", fmt.Sprintf("unknown index %q", index))
	}
}

// ValidateID rejects identifiers that cannot be embedded in a key.
func ValidateID(kind Kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.NewInvalidKeyError(string(kind), "empty identifier")
	}
	if strings.Contains(id, Delimiter) {
		return errors.NewInvalidKeyError(string(kind), fmt.Sprintf("identifier %q contains delimiter %q", id, Delimiter))
	}
	return nil
}

func versioned(kind Kind) bool {
	switch kind {
	case KindComposition, KindArtist, KindRaga, KindTala:
		return true
	}
	return false
}

// Encode maps an entity kind plus identifiers to its primary key tuple.
// Versioned kinds take either (id) for the latest row or (id, version) for a
// historical row, where version is a positive decimal without leading zeros.
// Attributions take (compositionID, artistID). GSI slots are not populated
// here; they derive from entity content via the per-kind bindings.
func Encode(kind Kind, ids ...string) (KeyTuple, error) {
	switch {
	case versioned(kind):
		if len(ids) != 1 && len(ids) != 2 {
			return KeyTuple{}, errors.NewInvalidKeyError(string(kind), fmt.Sprintf("want 1 or 2 identifiers, got %d", len(ids)))
		}
		if err := ValidateID(kind, ids[0]); err != nil {
			return KeyTuple{}, err
		}
		if len(ids) == 1 {
			return LatestKey(kind, ids[0])
		}
		v, err := parseVersionID(kind, ids[1])
		if err != nil {
			return KeyTuple{}, err
		}
		return VersionKey(kind, ids[0], v)
	case kind == KindAttribution:
		if len(ids) != 2 {
			return KeyTuple{}, errors.NewInvalidKeyError(string(kind), fmt.Sprintf("want 2 identifiers, got %d", len(ids)))
		}
		return AttributionKey(ids[0], ids[1])
	default:
		return KeyTuple{}, errors.NewInvalidKeyError(string(kind), "unknown kind")
	}
}

// Decode inverts Encode for a stored row's primary key pair.
func Decode(pk, sk string) (Kind, []string, error) {
	prefix, id, ok := strings.Cut(pk, Delimiter)
	if !ok || id == "" {
		return "", nil, errors.NewInvalidKeyError("", fmt.Sprintf("malformed partition key %q", pk))
	}

	// Attribution rows share the composition partition; the sort key tells them apart.
	if aid, found := strings.CutPrefix(sk, string(KindArtist)+Delimiter); found {
		if prefix != string(KindComposition) || aid == "" {
			return "", nil, errors.NewInvalidKeyError(string(KindAttribution), fmt.Sprintf("malformed key pair %q / %q", pk, sk))
		}
		return KindAttribution, []string{id, aid}, nil
	}

	kind := Kind(prefix)
	if !versioned(kind) {
		return "", nil, errors.NewInvalidKeyError(prefix, fmt.Sprintf("unknown kind in partition key %q", pk))
	}
	if sk == latestSK {
		return kind, []string{id}, nil
	}
	if raw, found := strings.CutPrefix(sk, versionPrefix); found {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return "", nil, errors.NewInvalidKeyError(string(kind), fmt.Sprintf("malformed version sort key %q", sk))
		}
		return kind, []string{id, strconv.Itoa(v)}, nil
	}
	return "", nil, errors.NewInvalidKeyError(string(kind), fmt.Sprintf("malformed sort key %q", sk))
}

func parseVersionID(kind Kind, raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 || raw != strconv.Itoa(v) {
		return 0, errors.NewInvalidKeyError(string(kind), fmt.Sprintf("version %q is not a positive canonical integer", raw))
	}
	return v, nil
}

// LatestKey is the key of the single authoritative row for a versioned entity.
func LatestKey(kind Kind, id string) (KeyTuple, error) {
	if !versioned(kind) {
		return KeyTuple{}, errors.NewInvalidKeyError(string(kind), "kind is not versioned")
	}
	if err := ValidateID(kind, id); err != nil {
		return KeyTuple{}, err
	}
	return KeyTuple{PK: partition(kind, id), SK: latestSK}, nil
}

// VersionKey is the key of an immutable historical version row.
func VersionKey(kind Kind, id string, version int) (KeyTuple, error) {
	if !versioned(kind) {
		return KeyTuple{}, errors.NewInvalidKeyError(string(kind), "kind is not versioned")
	}
	if err := ValidateID(kind, id); err != nil {
		return KeyTuple{}, err
	}
	if version < 1 {
		return KeyTuple{}, errors.NewInvalidKeyError(string(kind), fmt.Sprintf("version %d out of range", version))
	}
	return KeyTuple{PK: partition(kind, id), SK: VersionSK(version)}, nil
}

// AttributionKey keys the relation row linking a composition to an artist.
func AttributionKey(compositionID, artistID string) (KeyTuple, error) {
	if err := ValidateID(KindAttribution, compositionID); err != nil {
		return KeyTuple{}, err
	}
	if err := ValidateID(KindAttribution, artistID); err != nil {
		return KeyTuple{}, err
	}
	return KeyTuple{
		PK: partition(KindComposition, compositionID),
		SK: partition(KindArtist, artistID),
	}, nil
}

func partition(kind Kind, id string) string {
	return string(kind) + Delimiter + id
}

// Partition returns the pk value for an entity id, for partition-scoped queries.
func Partition(kind Kind, id string) (string, error) {
	if err := ValidateID(kind, id); err != nil {
		return "", err
	}
	return partition(kind, id), nil
}

// VersionSK zero-pads the version number so lexical sort-key order equals
// numeric version order.
func VersionSK(version int) string {
	return fmt.Sprintf("%s%06d", versionPrefix, version)
}

// VersionSKPrefix is the sort-key prefix shared by all historical versions.
func VersionSKPrefix() string { return versionPrefix }

// LatestSK is the fixed sort key of the authoritative latest row.
func LatestSK() string { return latestSK }

// The functions below build the per-kind GSI slot values. The slot contract
// is static per kind:
//
//	slot   composition          artist / raga / tala      attribution
//	gsi1   popularity ranking   kind listing by name      by-artist relation
//	gsi2   starting letter      starting letter           disputed-only
//	gsi3   tradition            tradition                 -
//	gsi4   language             -                         -
//	gsi5   raga relation        melakarta (raga only)     -
//	gsi6   tala relation        popularity ranking        -

// KindListGSI lists every latest row of a kind, ordered by normalized name.
func KindListGSI(kind Kind, name string) Pair {
	return Pair{
		PK: "KIND" + Delimiter + string(kind),
		SK: strings.ToLower(name),
	}
}

// PopularityGSI ranks latest rows of a kind by score. The padded sort key is
// scanned descending, so the highest scores come first.
func PopularityGSI(kind Kind, score int64) Pair {
	if score < 0 {
		score = 0
	}
	return Pair{
		PK: "KIND" + Delimiter + string(kind) + Delimiter + popSegment,
		SK: fmt.Sprintf("%s%012d", scorePrefix, score),
	}
}

// PopularitySlot reports which GSI slot carries the popularity ranking for a
// kind. Counter updates use it to refresh the padded sort key in place.
func PopularitySlot(kind Kind) (int, bool) {
	switch kind {
	case KindComposition:
		return 1, true
	case KindArtist, KindRaga, KindTala:
		return 6, true
	}
	return 0, false
}

// LetterGSI groups latest rows by the first letter of their normalized name,
// with the full lowercased name as the range key for prefix search. The
// letter is the first rune, not the first byte, so multibyte scripts
// (Kannada, Telugu, Devanagari) produce valid partition keys. Bytes that are
// not valid UTF-8 are replaced before keying; DynamoDB rejects invalid
// strings at write time.
func LetterGSI(kind Kind, name string) Pair {
	lower := strings.ToLower(strings.TrimSpace(name))
	lower = strings.ToValidUTF8(lower, string(utf8.RuneError))
	if lower == "" {
		return Pair{}
	}
	_, size := utf8.DecodeRuneInString(lower)
	return Pair{
		PK: string(kind) + Delimiter + letterSegment + Delimiter + lower[:size],
		SK: lower,
	}
}

// TraditionGSI groups latest rows of a kind by musical tradition.
func TraditionGSI(kind Kind, tradition, name string) Pair {
	if tradition == "" {
		return Pair{}
	}
	return Pair{
		PK: string(kind) + Delimiter + "TRADITION" + Delimiter + tradition,
		SK: strings.ToLower(name),
	}
}

// LanguageGSI groups latest rows of a kind by canonical language name.
func LanguageGSI(kind Kind, language, name string) Pair {
	if language == "" {
		return Pair{}
	}
	return Pair{
		PK: string(kind) + Delimiter + "LANGUAGE" + Delimiter + language,
		SK: strings.ToLower(name),
	}
}

// RelatedGSI links a latest row to a related entity (raga or tala for
// compositions), keyed so one query lists everything referencing it.
func RelatedGSI(relKind Kind, relID, name string) Pair {
	if relID == "" {
		return Pair{}
	}
	return Pair{
		PK: partition(relKind, relID),
		SK: strings.ToLower(name),
	}
}

// MelakartaGSI groups ragas by their parent melakarta number.
func MelakartaGSI(melakarta int, name string) Pair {
	if melakarta < 1 {
		return Pair{}
	}
	return Pair{
		PK: fmt.Sprintf("MELAKARTA%s%02d", Delimiter, melakarta),
		SK: strings.ToLower(name),
	}
}

// ArtistRelationGSI is the by-artist side of an attribution row.
func ArtistRelationGSI(artistID, compositionID string) Pair {
	return Pair{
		PK: partition(KindArtist, artistID),
		SK: partition(KindComposition, compositionID),
	}
}

// DisputedGSI indexes disputed attributions only; non-disputed rows leave
// the slot empty so the index stays scoped by type.
func DisputedGSI(createdAt string) Pair {
	return Pair{
		PK: string(KindAttribution) + Delimiter + "DISPUTED",
		SK: createdAt,
	}
}
