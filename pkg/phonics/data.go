package phonics

// DefaultInventoryName identifies the built-in UK systematic-synthetic-
// phonics inventory.
const DefaultInventoryName = "uk-ssp"

// DefaultInventory builds the built-in inventory: phase 2-5 correspondences
// with the matching tricky-word set. Each call returns a fresh value, so
// callers may hold it as long as they like without sharing hidden state.
func DefaultInventory() *Inventory {
	return MustInventory(DefaultInventoryName, DefaultGPCs(), NewTrickyWords(defaultTricky()...))
}

// DefaultGPCs returns a copy of the built-in correspondence list in
// curriculum order (phase 2, then 3, then 5; phase 4 introduces no new
// correspondences, only blending practice).
func DefaultGPCs() []GPC {
	out := make([]GPC, 0, len(phase2GPCs)+len(phase3GPCs)+len(phase5GPCs))
	out = append(out, phase2GPCs...)
	out = append(out, phase3GPCs...)
	out = append(out, phase5GPCs...)
	return out
}

// GraphemesThroughPhase returns the graphemes a learner has met by the end
// of the given phase, cumulatively. Phases below 2 yield nothing; phase 4
// equals phase 3; phases above 5 equal phase 5.
func GraphemesThroughPhase(phase int) []string {
	var groups [][]GPC
	switch {
	case phase < 2:
	case phase == 2:
		groups = [][]GPC{phase2GPCs}
	case phase == 3 || phase == 4:
		groups = [][]GPC{phase2GPCs, phase3GPCs}
	default:
		groups = [][]GPC{phase2GPCs, phase3GPCs, phase5GPCs}
	}
	var out []string
	for _, g := range groups {
		for _, e := range g {
			out = append(out, e.Grapheme)
		}
	}
	return out
}

// TrickyWordsThroughPhase returns the tricky words taught by the end of the
// given phase, cumulatively.
func TrickyWordsThroughPhase(phase int) []string {
	var out []string
	for p := 2; p <= phase && p <= 5; p++ {
		out = append(out, trickyByPhase[p]...)
	}
	return out
}

var phase2GPCs = []GPC{
	{Grapheme: "s", Phoneme: "/s/", Examples: []string{"sat", "sun"}},
	{Grapheme: "a", Phoneme: "/a/", Examples: []string{"ant", "pan"}},
	{Grapheme: "t", Phoneme: "/t/", Examples: []string{"tap", "sit"}},
	{Grapheme: "p", Phoneme: "/p/", Examples: []string{"pin", "nap"}},
	{Grapheme: "i", Phoneme: "/i/", Examples: []string{"it", "tin"}},
	{Grapheme: "n", Phoneme: "/n/", Examples: []string{"net", "pan"}},
	{Grapheme: "m", Phoneme: "/m/", Examples: []string{"map", "ham"}},
	{Grapheme: "d", Phoneme: "/d/", Examples: []string{"dog", "mad"}},
	{Grapheme: "g", Phoneme: "/g/", Examples: []string{"got", "big"}},
	{Grapheme: "o", Phoneme: "/o/", Examples: []string{"on", "hot"}},
	{Grapheme: "c", Phoneme: "/k/", Examples: []string{"cat", "cot"}},
	{Grapheme: "k", Phoneme: "/k/", Examples: []string{"kit", "kid"}},
	{Grapheme: "ck", Phoneme: "/k/", Examples: []string{"duck", "sock"}},
	{Grapheme: "e", Phoneme: "/e/", Examples: []string{"egg", "ten"}},
	{Grapheme: "u", Phoneme: "/u/", Examples: []string{"up", "mud"}},
	{Grapheme: "r", Phoneme: "/r/", Examples: []string{"run", "rat"}},
	{Grapheme: "h", Phoneme: "/h/", Examples: []string{"hat", "hen"}},
	{Grapheme: "b", Phoneme: "/b/", Examples: []string{"bed", "bat"}},
	{Grapheme: "f", Phoneme: "/f/", Examples: []string{"fan", "fit"}},
	{Grapheme: "ff", Phoneme: "/f/", Examples: []string{"puff", "off"}},
	{Grapheme: "l", Phoneme: "/l/", Examples: []string{"leg", "lap"}},
	{Grapheme: "ll", Phoneme: "/l/", Examples: []string{"bell", "hill"}},
	{Grapheme: "ss", Phoneme: "/s/", Examples: []string{"hiss", "miss"}},
}

var phase3GPCs = []GPC{
	{Grapheme: "j", Phoneme: "/j/", Examples: []string{"jam", "jet"}},
	{Grapheme: "v", Phoneme: "/v/", Examples: []string{"van", "vet"}},
	{Grapheme: "w", Phoneme: "/w/", Examples: []string{"win", "wet"}},
	{Grapheme: "x", Phoneme: "/ks/", Examples: []string{"box", "six"}},
	{Grapheme: "y", Phoneme: "/y/", Examples: []string{"yes", "yak"}},
	{Grapheme: "z", Phoneme: "/z/", Examples: []string{"zip", "zag"}},
	{Grapheme: "zz", Phoneme: "/z/", Examples: []string{"buzz", "fizz"}},
	{Grapheme: "qu", Phoneme: "/kw/", Examples: []string{"quick", "quit"}},
	{Grapheme: "ch", Phoneme: "/ch/", Examples: []string{"chip", "chat"}},
	{Grapheme: "sh", Phoneme: "/sh/", Examples: []string{"ship", "shop"}},
	{Grapheme: "th", Phoneme: "/th/", Examples: []string{"thin", "moth"}},
	{Grapheme: "ng", Phoneme: "/ng/", Examples: []string{"ring", "song"}},
	{Grapheme: "ai", Phoneme: "/ai/", Examples: []string{"rain", "wait"}},
	{Grapheme: "ee", Phoneme: "/ee/", Examples: []string{"see", "tree"}},
	{Grapheme: "igh", Phoneme: "/igh/", Examples: []string{"high", "night"}},
	{Grapheme: "oa", Phoneme: "/oa/", Examples: []string{"boat", "coat"}},
	{Grapheme: "oo", Phoneme: "/oo/", Examples: []string{"moon", "book"}},
	{Grapheme: "ar", Phoneme: "/ar/", Examples: []string{"car", "park"}},
	{Grapheme: "or", Phoneme: "/or/", Examples: []string{"fork", "corn"}},
	{Grapheme: "ur", Phoneme: "/ur/", Examples: []string{"hurt", "turn"}},
	{Grapheme: "ow", Phoneme: "/ow/", Examples: []string{"cow", "how"}},
	{Grapheme: "oi", Phoneme: "/oi/", Examples: []string{"coin", "boil"}},
	{Grapheme: "ear", Phoneme: "/ear/", Examples: []string{"dear", "hear"}},
	{Grapheme: "air", Phoneme: "/air/", Examples: []string{"fair", "hair"}},
	{Grapheme: "ure", Phoneme: "/ure/", Examples: []string{"sure", "pure"}},
	{Grapheme: "er", Phoneme: "/er/", Examples: []string{"hammer", "letter"}},
}

// phase5GPCs holds the phase 5 alternative spellings, the split digraphs,
// and the consolidation correspondences (doubled consonants, tch, dge, and
// the silent-letter pairs) that decodable schemes introduce last.
var phase5GPCs = []GPC{
	{Grapheme: "ay", Phoneme: "/ai/", Examples: []string{"day", "play"}},
	{Grapheme: "ou", Phoneme: "/ow/", Examples: []string{"out", "cloud"}},
	{Grapheme: "ie", Phoneme: "/igh/", Examples: []string{"tie", "pie"}},
	{Grapheme: "ea", Phoneme: "/ee/", Examples: []string{"eat", "sea"}},
	{Grapheme: "oy", Phoneme: "/oi/", Examples: []string{"boy", "toy"}},
	{Grapheme: "ir", Phoneme: "/ur/", Examples: []string{"girl", "bird"}},
	{Grapheme: "ue", Phoneme: "/oo/", Examples: []string{"blue", "clue"}},
	{Grapheme: "aw", Phoneme: "/or/", Examples: []string{"saw", "paw"}},
	{Grapheme: "wh", Phoneme: "/w/", Examples: []string{"when", "wheel"}},
	{Grapheme: "ph", Phoneme: "/f/", Examples: []string{"photo", "dolphin"}},
	{Grapheme: "ew", Phoneme: "/oo/", Examples: []string{"new", "grew"}},
	{Grapheme: "oe", Phoneme: "/oa/", Examples: []string{"toe", "goes"}},
	{Grapheme: "au", Phoneme: "/or/", Examples: []string{"haul", "launch"}},
	{Grapheme: "ey", Phoneme: "/ee/", Examples: []string{"key", "money"}},
	{Grapheme: "a_e", Phoneme: "/ai/", Examples: []string{"make", "came"}},
	{Grapheme: "e_e", Phoneme: "/ee/", Examples: []string{"these", "theme"}},
	{Grapheme: "i_e", Phoneme: "/igh/", Examples: []string{"like", "time"}},
	{Grapheme: "o_e", Phoneme: "/oa/", Examples: []string{"home", "bone"}},
	{Grapheme: "u_e", Phoneme: "/oo/", Examples: []string{"june", "rule"}},
	{Grapheme: "tch", Phoneme: "/ch/", Examples: []string{"catch", "fetch"}},
	{Grapheme: "dge", Phoneme: "/j/", Examples: []string{"badge", "bridge"}},
	{Grapheme: "kn", Phoneme: "/n/", Examples: []string{"knit", "knock"}},
	{Grapheme: "wr", Phoneme: "/r/", Examples: []string{"wrap", "wrist"}},
	{Grapheme: "gn", Phoneme: "/n/", Examples: []string{"gnat", "gnome"}},
	{Grapheme: "mb", Phoneme: "/m/", Examples: []string{"lamb", "comb"}},
	{Grapheme: "ve", Phoneme: "/v/", Examples: []string{"have", "give"}},
	{Grapheme: "le", Phoneme: "/l/", Examples: []string{"apple", "little"}},
	{Grapheme: "nk", Phoneme: "/nk/", Examples: []string{"pink", "thank"}},
	{Grapheme: "oor", Phoneme: "/or/", Examples: []string{"door", "floor"}},
	{Grapheme: "eigh", Phoneme: "/ai/", Examples: []string{"eight", "weigh"}},
	{Grapheme: "bb", Phoneme: "/b/", Examples: []string{"rabbit", "bubble"}},
	{Grapheme: "dd", Phoneme: "/d/", Examples: []string{"muddy", "daddy"}},
	{Grapheme: "gg", Phoneme: "/g/", Examples: []string{"foggy", "bigger"}},
	{Grapheme: "mm", Phoneme: "/m/", Examples: []string{"summer", "hammer"}},
	{Grapheme: "nn", Phoneme: "/n/", Examples: []string{"funny", "dinner"}},
	{Grapheme: "pp", Phoneme: "/p/", Examples: []string{"happy", "puppy"}},
	{Grapheme: "rr", Phoneme: "/r/", Examples: []string{"carrot", "sorry"}},
	{Grapheme: "tt", Phoneme: "/t/", Examples: []string{"letter", "butter"}},
}

var trickyByPhase = map[int][]string{
	2: {"the", "to", "i", "no", "go", "into"},
	3: {"he", "she", "we", "me", "be", "was", "you", "they", "all", "are", "my", "her"},
	4: {"said", "have", "like", "so", "do", "some", "come", "little", "one", "were", "there", "what", "when", "out"},
	5: {"oh", "their", "people", "mr", "mrs", "looked", "called", "asked", "could"},
}

// defaultTricky flattens trickyByPhase in phase order.
func defaultTricky() []string {
	var out []string
	for p := 2; p <= 5; p++ {
		out = append(out, trickyByPhase[p]...)
	}
	return out
}
