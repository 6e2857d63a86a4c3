package categorize

import "paris_events/internal/model"

// categoryKeywords drives the rule-based tier. Scoring iterates categories
// in enum order and counts which keywords appear in the posting text, so
// the table contents decide both the winner and how ties break. Keywords
// are lowercase; accented and unaccented spellings are listed separately
// because matching is plain substring search.
var categoryKeywords = map[model.Category][]string{
	model.CategorySpectacles: {
		"théâtre", "theatre", "opéra", "opera", "ballet", "danse", "dance",
		"comédie", "comedie", "comedy", "humour", "stand-up", "standup", "one man show",
		"cirque", "circus", "magie", "magic", "cabaret", "spectacle", "pièce",
		"marionnettes", "improvisation", "impro",
	},
	model.CategoryMusic: {
		"concert", "musique", "music", "live", "jazz", "rock", "pop", "electro",
		"electronic", "classique", "classical", "symphonie", "symphony", "orchestre",
		"orchestra", "rap", "hip-hop", "hip hop", "chanson", "folk", "blues",
		"récital", "recital", "philharmonie", "chamber music", "quartet", "trio",
	},
	model.CategoryVisualArts: {
		"exposition", "exhibition", "expo", "musée", "museum", "galerie", "gallery",
		"art", "vernissage", "photographie", "photography", "photo", "peinture",
		"painting", "sculpture", "installation", "beaux-arts", "contemporain",
	},
	model.CategoryWorkshops: {
		"atelier", "workshop", "cours", "class", "stage", "céramique", "ceramics",
		"poterie", "pottery", "peinture", "painting", "dessin", "drawing",
		"sculpture", "couture", "sewing", "bijoux", "jewelry", "créatif", "creative",
		"diy", "fabrication", "initiation", "masterclass créative",
	},
	model.CategorySport: {
		"sport", "fitness", "yoga", "pilates", "running", "course", "vélo", "cycling",
		"escalade", "climbing", "natation", "swimming", "musculation", "gym",
		"boxe", "boxing", "arts martiaux", "martial arts", "match", "compétition",
	},
	model.CategoryFoodAndDrink: {
		"dégustation", "tasting", "vin", "wine", "cuisine", "cooking", "chef",
		"gastronomie", "gastronomy", "pâtisserie", "pastry", "chocolat", "chocolate",
		"fromage", "cheese", "brunch", "food", "restaurant", "repas", "dîner", "dinner",
	},
	model.CategoryCulture: {
		"cinéma", "cinema", "film", "movie", "conférence", "conference", "talk",
		"lecture", "visite", "visit", "guidée", "guided", "patrimoine", "heritage",
		"histoire", "history", "littérature", "literature", "livre", "book", "débat",
	},
	model.CategoryNightlife: {
		"club", "soirée", "party", "nuit", "night", "dj", "danse", "dancing",
		"bar", "cocktail", "rooftop", "speakeasy", "lounge", "afterparty",
	},
	model.CategorySocial: {
		"meetup", "networking", "afterwork", "rencontre", "meeting", "social",
		"speed dating", "apéro", "drinks", "échange", "exchange", "conversation",
		"communauté", "community",
	},
}

// subCategories lists each category's sub-category identifiers in match
// priority order. Identifiers use underscores; the matcher checks the
// space and hyphen spellings against the posting text.
var subCategories = map[model.Category][]string{
	model.CategorySpectacles:   {"theatre", "opera", "ballet", "danse", "humour", "stand_up", "cirque", "magie", "cabaret"},
	model.CategoryMusic:        {"classique", "jazz", "rock", "pop", "electro", "rap", "world", "chanson_francaise", "symphonique"},
	model.CategoryVisualArts:   {"exposition", "musee", "galerie", "photographie", "street_art", "art_contemporain", "vernissage"},
	model.CategoryWorkshops:    {"ceramique", "poterie", "peinture", "dessin", "sculpture", "couture", "bijoux", "ecriture"},
	model.CategorySport:        {"yoga", "fitness", "running", "escalade", "danse", "arts_martiaux", "velo"},
	model.CategoryFoodAndDrink: {"degustation_vin", "cours_cuisine", "patisserie", "brunch", "food_market"},
	model.CategoryCulture:      {"cinema", "conference", "visite_guidee", "lecture", "masterclass"},
	model.CategoryNightlife:    {"club", "bar", "rooftop", "speakeasy", "soiree"},
	model.CategorySocial:       {"meetup", "networking", "afterwork", "speed_dating"},
}

// categoryGlosses describe each category for the classifier prompt.
var categoryGlosses = map[model.Category]string{
	model.CategorySpectacles:   "Theatre, opera, ballet, dance, comedy, stand-up, circus, magic, cabaret",
	model.CategoryMusic:        "Concerts, live music (classical, jazz, rock, pop, electro, rap)",
	model.CategoryVisualArts:   "Exhibitions, museums, galleries, photography, vernissage",
	model.CategoryWorkshops:    "Creative workshops (ceramics, pottery, painting, drawing, crafts)",
	model.CategorySport:        "Sports events, fitness, yoga, running",
	model.CategoryFoodAndDrink: "Wine tasting, cooking classes, food events, brunch",
	model.CategoryCulture:      "Cinema, conferences, guided tours, lectures",
	model.CategoryNightlife:    "Clubs, bars, DJ parties, rooftop events",
	model.CategorySocial:       "Meetups, networking, afterwork, social events",
}
