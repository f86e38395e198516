// Package stations maps station mailboxes to the single station each one
// may submit returns for.
package stations

import "sort"

// DefaultStation is returned for identifiers that are not station mailboxes.
// It means the identifier carries no station restriction.
const DefaultStation = "Default Station"

// Entry is one mailbox-to-station mapping.
type Entry struct {
	Identifier string `json:"identifier"`
	Station    string `json:"station"`
}

// Clerk, receptionist and officer-in-charge accounts of a station share one
// mailbox. Admin and PHQ-KLA mailboxes are deliberately absent.
var directory = map[string]string{
	// Prison units
	"maxpri_upper@prison.go.ug": "MaxPri Upper",
	"m_bay_pri@prison.go.ug":    "M-Bay Pri",
	"luzira_w@prison.go.ug":     "Luzira (W)",
	"kigo_m@prison.go.ug":       "Kigo (M)",
	"kigo_w@prison.go.ug":       "Kigo (W)",
	"masaka_m@prison.go.ug":     "Masaka (M)",
	"masaka_w@prison.go.ug":     "Masaka (W)",
	"mbale_m@prison.go.ug":      "Mbale (M)",
	"mbale_w@prison.go.ug":      "Mbale (W)",
	"lira_m@prison.go.ug":       "Lira (M)",
	"lira_w@prison.go.ug":       "Lira (W)",
	"arua_m@prison.go.ug":       "Arua (M)",
	"arua_w@prison.go.ug":       "Arua (W)",
	"mbarara_m@prison.go.ug":    "Mbarara (M)",
	"mbarara_w@prison.go.ug":    "Mbarara (W)",
	"gulu_m@prison.go.ug":       "Gulu (M)",
	"gulu_w@prison.go.ug":       "Gulu (W)",

	// District prisons
	"masaka_dist@prison.go.ug":   "Masaka",
	"mbarara_dist@prison.go.ug":  "Mbarara",
	"arua_dist@prison.go.ug":     "Arua",
	"bushe_zone@prison.go.ug":    "Bushe Zone",
	"ibanda_zone@prison.go.ug":   "IBANDA ZONE",
	"kalungu@prison.go.ug":       "Kalungu",
	"dpc_luweero@prison.go.ug":   "DPC Luweero",
	"dpc_wakiso@prison.go.ug":    "DPC Wakiso",
	"dpc_mpigi@prison.go.ug":     "DPC Mpigi",
	"dpc_iganga@prison.go.ug":    "DPC Iganga",
	"dpc_soroti@prison.go.ug":    "DPC Soroti",
	"dpc_tororo@prison.go.ug":    "DPC Tororo",
	"dpc_bugiri@prison.go.ug":    "DPC Bugiri",
	"dpc_kamuli@prison.go.ug":    "DPC Kamuli",
	"dpc_kaliro@prison.go.ug":    "DPC Kaliro",
	"dpc_mayuge@prison.go.ug":    "DPC Mayuge",
	"dpc_kasese@prison.go.ug":    "DPC Kasese",
	"dpc_rakai@prison.go.ug":     "DPC Rakai",
	"dpc_kalangala@prison.go.ug": "DPC Kalangala",
	"dpc_lwengo@prison.go.ug":    "DPC Lwengo",
	"dpc_masindi@prison.go.ug":   "DPC Masindi",
	"dpc_kabale@prison.go.ug":    "DPC Kabale",
	"dpc_lira@prison.go.ug":      "DPC Lira",
	"dpc_alebtong@prison.go.ug":  "DPC Alebtong",
	"dpc_apac@prison.go.ug":      "DPC Apac",

	// Regions
	"northern@prison.go.ug":      "NORTHERN",
	"north_eastern@prison.go.ug": "NORTH-EASTERN",
	"west@prison.go.ug":          "WEST",
	"mid_western@prison.go.ug":   "MID-WESTERN",
	"south_western@prison.go.ug": "SOUTH-WESTERN",
	"southern@prison.go.ug":      "SOUTHERN",
	"central@prison.go.ug":       "CENTRAL",
	"ker@prison.go.ug":           "KER",
	"eastern@prison.go.ug":       "EASTERN",
	"east_central@prison.go.ug":  "EAST CENTRAL",
	"mid_central@prison.go.ug":   "MID CENTRAL",
	"north_central@prison.go.ug": "NORTH CENTRAL",
	"mid_northern@prison.go.ug":  "MID NORTHERN",
	"north_western@prison.go.ug": "NORTH WESTERN",
	"mid_eastern@prison.go.ug":   "MID EASTERN",
	"south_eastern@prison.go.ug": "SOUTH EASTERN",
	"kigezi@prison.go.ug":        "KIGEZI",
	"kooki@prison.go.ug":         "KOOKI",
	"iganga@prison.go.ug":        "Iganga",

	// District prisons, second intake
	"luweero@prison.go.ug":      "Luweero",
	"kanoni@prison.go.ug":       "Kanoni",
	"wakiso@prison.go.ug":       "Wakiso",
	"mpigi@prison.go.ug":        "Mpigi",
	"buikwe@prison.go.ug":       "Buikwe",
	"lugazi@prison.go.ug":       "Lugazi",
	"koome@prison.go.ug":        "Koome",
	"buvuma@prison.go.ug":       "Buvuma",
	"kauga@prison.go.ug":        "Kauga",
	"nyenga@prison.go.ug":       "Nyenga",
	"kagadi@prison.go.ug":       "Kagadi",
	"mityana@prison.go.ug":      "Mityana",
	"magala@prison.go.ug":       "Magala",
	"myanzi@prison.go.ug":       "Myanzi",
	"mwera@prison.go.ug":        "Mwera",
	"kassanda@prison.go.ug":     "Kassanda",
	"kibaale@prison.go.ug":      "Kibaale",
	"kyakasengura@prison.go.ug": "Kyakasengura",
	"muinaina@prison.go.ug":     "Muinaina",
	"kitwe@prison.go.ug":        "Kitwe",
	"lugore@prison.go.ug":       "Lugore",
	"orom_tikau@prison.go.ug":   "Orom-Tikau",
	"lamwo@prison.go.ug":        "Lamwo",
	"patongo@prison.go.ug":      "Patongo",
	"lotuturu@prison.go.ug":     "Lotuturu",
	"pader@prison.go.ug":        "Pader",
	"pece@prison.go.ug":         "Pece",
	"kaladima@prison.go.ug":     "Kaladima",
	"kitgum@prison.go.ug":       "Kitgum",
	"otuke_remand@prison.go.ug": "Otuke Remand",
	"apac@prison.go.ug":         "Apac",
	"maruzi@prison.go.ug":       "Maruzi",
	"kwania@prison.go.ug":       "Kwania",
	"aber@prison.go.ug":         "Aber",
	"oyam@prison.go.ug":         "Oyam",
	"kole@prison.go.ug":         "Kole",
	"dokolo@prison.go.ug":       "Dokolo",
	"amolatar@prison.go.ug":     "Amolatar",
	"awei@prison.go.ug":         "Awei",
	"odina@prison.go.ug":        "Odina",
	"aswa_i@prison.go.ug":       "Aswa I",
	"aswa_ii@prison.go.ug":      "Aswa II",
	"aswa_iii@prison.go.ug":     "Aswa III",
	"adjumani@prison.go.ug":     "Adjumani",
	"yumbe@prison.go.ug":        "Yumbe",
	"lobule@prison.go.ug":       "Lobule",
	"giligili@prison.go.ug":     "Giligili",
	"moyo@prison.go.ug":         "Moyo",
	"koboko@prison.go.ug":       "Koboko",
	"ragem@prison.go.ug":        "Ragem",
	"paidha@prison.go.ug":       "Paidha",
	"olia@prison.go.ug":         "Olia",
	"nebbi@prison.go.ug":        "Nebbi",
	"bidibidi@prison.go.ug":     "Bidibidi",
	"bubulo@prison.go.ug":       "Bubulo",
	"kisoko@prison.go.ug":       "Kisoko",
	"mukuju@prison.go.ug":       "Mukuju",
	"budaka@prison.go.ug":       "Budaka",
	"masafu@prison.go.ug":       "Masafu",
	"ngenge@prison.go.ug":       "Ngenge",
	"kapchorwa@prison.go.ug":    "Kapchorwa",
	"mutufu@prison.go.ug":       "Mutufu",
	"butaleja@prison.go.ug":     "Butaleja",
	"agule@prison.go.ug":        "Agule",
	"kakoro@prison.go.ug":       "Kakoro",
	"kibuku@prison.go.ug":       "Kibuku",
	"kamuge@prison.go.ug":       "Kamuge",
	"bukwo@prison.go.ug":        "Bukwo",
	"amuria@prison.go.ug":       "Amuria",
	"kaberamaido@prison.go.ug":  "Kaberamaido",
	"nakatunya@prison.go.ug":    "Nakatunya",
	"serere@prison.go.ug":       "Serere",
	"kumi@prison.go.ug":         "Kumi",
	"katakwi@prison.go.ug":      "Katakwi",
	"bukedea@prison.go.ug":      "Bukedea",
	"ngora@prison.go.ug":        "Ngora",
	"bugiri@prison.go.ug":       "Bugiri",
	"kamuli@prison.go.ug":       "Kamuli",
	"kaliro@prison.go.ug":       "Kaliro",
	"mayuge@prison.go.ug":       "Mayuge",
	"bufumbira@prison.go.ug":    "Bufumbira",
	"bugembe@prison.go.ug":      "Bugembe",
	"buyende@prison.go.ug":      "Buyende",
	"namalemba@prison.go.ug":    "Namalemba",
	"namungalwe@prison.go.ug":   "Namungalwe",
	"nawanyago@prison.go.ug":    "Nawanyago",
	"kiyunga@prison.go.ug":      "Kiyunga",
	"buyinja@prison.go.ug":      "Buyinja",
	"ivukula@prison.go.ug":      "Ivukula",
	"kagoma@prison.go.ug":       "Kagoma",
	"kaiti@prison.go.ug":        "Kaiti",
	"nabwigulu@prison.go.ug":    "Nabwigulu",
	"butagaya@prison.go.ug":     "Butagaya",
	"busesa@prison.go.ug":       "Busesa",
	"imanyiro@prison.go.ug":     "Imanyiro",
	"kidera@prison.go.ug":       "Kidera",
	"busedde@prison.go.ug":      "Busedde",
	"kigandalo@prison.go.ug":    "Kigandalo",
	"kityerera@prison.go.ug":    "Kityerera",
	"ikulwe@prison.go.ug":       "Ikulwe",
	"bubukwanga@prison.go.ug":   "Bubukwanga",
	"kibiito@prison.go.ug":      "Kibiito",
	"nyabirongo@prison.go.ug":   "Nyabirongo",
	"rokooki@prison.go.ug":      "Rokooki",
	"bwera@prison.go.ug":        "Bwera",
	"maliba@prison.go.ug":       "Maliba",
	"kyenjojo@prison.go.ug":     "Kyenjojo",
	"lake_katwe@prison.go.ug":   "Lake Katwe",
	"muhokya@prison.go.ug":      "Muhokya",
	"butiti@prison.go.ug":       "Butiti",
	"kyegegwa@prison.go.ug":     "Kyegegwa",
	"butuntumula@prison.go.ug":  "Butuntumula",
	"muduuma@prison.go.ug":      "Muduuma",
	"nyimbwa@prison.go.ug":      "Nyimbwa",
	"bamunanika@prison.go.ug":   "Bamunanika",
	"kasangati@prison.go.ug":    "Kasangati",
	"wabusaana@prison.go.ug":    "Wabusaana",
	"sentema@prison.go.ug":      "Sentema",
	"mukulubita@prison.go.ug":   "Mukulubita",
	"buwambo@prison.go.ug":      "Buwambo",
	"kapeeka@prison.go.ug":      "Kapeeka",
	"kitala@prison.go.ug":       "Kitala",
	"wakyato@prison.go.ug":      "Wakyato",
	"kasanje@prison.go.ug":      "Kasanje",
	"butoolo@prison.go.ug":      "Butoolo",
	"buwama@prison.go.ug":       "Buwama",
	"nkozi@prison.go.ug":        "Nkozi",
	"kabasanda@prison.go.ug":    "Kabasanda",
	"ngoma@prison.go.ug":        "Ngoma",
	"bulaula@prison.go.ug":      "Bulaula",
	"busaana@prison.go.ug":      "Busaana",
	"galilaya@prison.go.ug":     "Galilaya",
	"kayonza@prison.go.ug":      "Kayonza",
	"ntenjeru@prison.go.ug":     "Ntenjeru",
	"kangulumira@prison.go.ug":  "Kangulumira",
	"nagojje@prison.go.ug":      "Nagojje",
	"nakiffuma@prison.go.ug":    "Nakiffuma",
	"nakisunga@prison.go.ug":    "Nakisunga",
	"ngogwe@prison.go.ug":       "Ngogwe",

	// Farms
	"kitalya_farm@prison.go.ug":  "Kitalya Farm",
	"kakumiro_farm@prison.go.ug": "Kakumiro Farm",
	"kijjumba_farm@prison.go.ug": "Kijjumba Farm",
	"kaweeri_farm@prison.go.ug":  "Kaweeri Farm",
	"loro_farm@prison.go.ug":     "Loro Farm",
	"arocha_farm@prison.go.ug":   "Arocha Farm",
	"erute_farm@prison.go.ug":    "Erute Farm",
	"alebtong_farm@prison.go.ug": "Alebtong Farm",
	"tororo_farm@prison.go.ug":   "Tororo Farm",
	"ruimi_farm@prison.go.ug":    "Ruimi Farm",
	"ibuga_farm@prison.go.ug":    "Ibuga Farm",
	"mubuku_farm@prison.go.ug":   "Mubuku Farm",

	// Headquarters and special units
	"kampala_remand_prison@prison.go.ug":                             "Kampala Remand Prison",
	"prisons_academy_training_school_and_staff_college@prison.go.ug": "Prisons Academy Training School and Staff College",
	"barracks_and_security_luzira@prison.go.ug":                      "Barracks and Security Luzira",
	"uganda_prisons_band@prison.go.ug":                               "Uganda Prisons Band",
	"prisons_headquarters@prison.go.ug":                              "Prisons Headquarters",
	"kitalya_min_max@prison.go.ug":                                   "Kitalya Min-Max",
	"bugungu_y_p@prison.go.ug":                                       "Bugungu Y.P",
	"bugungu_y_o@prison.go.ug":                                       "Bugungu Y.O",

	// Later additions
	"bukomero@prison.go.ug":      "Bukomero",
	"masindi_m@prison.go.ug":     "Masindi (M)",
	"masindi_w@prison.go.ug":     "Masindi (W)",
	"biiso@prison.go.ug":         "Biiso",
	"bugambe@prison.go.ug":       "Bugambe",
	"hoima@prison.go.ug":         "Hoima",
	"isimba_farm@prison.go.ug":   "Isimba Farm",
	"maiha@prison.go.ug":         "Maiha",
	"kiryandongo@prison.go.ug":   "Kiryandongo",
	"kiboga@prison.go.ug":        "Kiboga",
	"ntwetwe@prison.go.ug":       "Ntwetwe",
	"kigumba@prison.go.ug":       "Kigumba",
	"buliisa@prison.go.ug":       "Buliisa",
	"kakiika_farm@prison.go.ug":  "Kakiika Farm",
	"bushenyi_m@prison.go.ug":    "Bushenyi (M)",
	"bushenyi_w@prison.go.ug":    "Bushenyi (W)",
	"ntungamo@prison.go.ug":      "Ntungamo",
	"kiburara_farm@prison.go.ug": "Kiburara Farm",
	"nyabuhikye@prison.go.ug":    "Nyabuhikye",
	"mitooma@prison.go.ug":       "Mitooma",
	"sanga@prison.go.ug":         "Sanga",
	"isingiro@prison.go.ug":      "Isingiro",
	"kakiika@prison.go.ug":       "Kakiika",
	"buhweju@prison.go.ug":       "Buhweju",
	"kiruhura@prison.go.ug":      "Kiruhura",
	"kamwenge@prison.go.ug":      "Kamwenge",
	"kicheche@prison.go.ug":      "Kicheche",
	"ndorwa@prison.go.ug":        "Ndorwa",
	"kanungu@prison.go.ug":       "Kanungu",
	"kisoro@prison.go.ug":        "Kisoro",
	"rubanda@prison.go.ug":       "Rubanda",
	"mparo@prison.go.ug":         "Mparo",
	"rukungiri@prison.go.ug":     "Rukungiri",
	"kihihi@prison.go.ug":        "Kihihi",
	"nyarushanje@prison.go.ug":   "Nyarushanje",
	"ssaza@prison.go.ug":         "Ssaza",
	"mtutkula_farm@prison.go.ug": "Mtutkula Farm",
	"bigasa@prison.go.ug":        "Bigasa",
	"ndagwe@prison.go.ug":        "Ndagwe",
	"kisekka@prison.go.ug":       "Kisekka",
	"kitanda@prison.go.ug":       "Kitanda",
	"lwabenge@prison.go.ug":      "Lwabenge",
	"kyamulibwa@prison.go.ug":    "Kyamulibwa",
	"kyanamukaka@prison.go.ug":   "Kyanamukaka",
	"mukungwe@prison.go.ug":      "Mukungwe",
	"lukaaya@prison.go.ug":       "Lukaaya",
	"lwamagwa@prison.go.ug":      "Lwamagwa",
	"rakai@prison.go.ug":         "Rakai",
	"sembabule@prison.go.ug":     "Sembabule",
	"lwebitakuli@prison.go.ug":   "Lwebitakuli",
	"ntuusi@prison.go.ug":        "Ntuusi",
	"mateete@prison.go.ug":       "Mateete",
	"lwemiyaga@prison.go.ug":     "Lwemiyaga",
	"kyazanga@prison.go.ug":      "Kyazanga",
	"lwengo@prison.go.ug":        "Lwengo",
	"bukulula@prison.go.ug":      "Bukulula",
	"buwunga@prison.go.ug":       "Buwunga",
	"kabonera@prison.go.ug":      "Kabonera",
	"kasaali@prison.go.ug":       "Kasaali",
	"kayanja@prison.go.ug":       "Kayanja",
	"kabula@prison.go.ug":        "Kabula",
	"kabira@prison.go.ug":        "Kabira",
	"kacheera@prison.go.ug":      "Kacheera",
	"kakuuto@prison.go.ug":       "Kakuuto",
	"kalisizo@prison.go.ug":      "Kalisizo",
	"kalangala@prison.go.ug":     "Kalangala",
	"butenga@prison.go.ug":       "Butenga",
	"moroto@prison.go.ug":        "Moroto",
	"namalu@prison.go.ug":        "Namalu",
	"amita@prison.go.ug":         "Amita",
	"kotido@prison.go.ug":        "Kotido",
	"kaabong@prison.go.ug":       "Kaabong",
	"nakapiripirit@prison.go.ug": "Nakapiripirit",
}

// Lookup returns the station bound to identifier, or DefaultStation.
// Matching is exact and case-sensitive.
func Lookup(identifier string) string {
	if station, ok := directory[identifier]; ok {
		return station
	}
	return DefaultStation
}

// Restricted reports whether identifier is a station mailbox.
func Restricted(identifier string) bool {
	_, ok := directory[identifier]
	return ok
}

// All returns every mapping sorted by station, then identifier.
func All() []Entry {
	entries := make([]Entry, 0, len(directory))
	for identifier, station := range directory {
		entries = append(entries, Entry{Identifier: identifier, Station: station})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Station != entries[j].Station {
			return entries[i].Station < entries[j].Station
		}
		return entries[i].Identifier < entries[j].Identifier
	})
	return entries
}

// Names returns the distinct station names in sorted order.
func Names() []string {
	seen := make(map[string]struct{}, len(directory))
	names := make([]string, 0, len(directory))
	for _, station := range directory {
		if _, ok := seen[station]; ok {
			continue
		}
		seen[station] = struct{}{}
		names = append(names, station)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of mailboxes in the directory.
func Len() int {
	return len(directory)
}
