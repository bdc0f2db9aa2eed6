package language

// Language 支持翻译的语言
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// supported 可翻译的语言表，按显示名称排序
var supported = []Language{
	{Code: "af", Name: "Afrikaans"},
	{Code: "sq", Name: "Albanian"},
	{Code: "am", Name: "Amharic"},
	{Code: "ar", Name: "Arabic"},
	{Code: "hy", Name: "Armenian"},
	{Code: "as", Name: "Assamese"},
	{Code: "ay", Name: "Aymara"},
	{Code: "az", Name: "Azerbaijani"},
	{Code: "bm", Name: "Bambara"},
	{Code: "eu", Name: "Basque"},
	{Code: "be", Name: "Belarusian"},
	{Code: "bn", Name: "Bengali"},
	{Code: "bho", Name: "Bhojpuri"},
	{Code: "bs", Name: "Bosnian"},
	{Code: "bg", Name: "Bulgarian"},
	{Code: "ca", Name: "Catalan"},
	{Code: "ceb", Name: "Cebuano"},
	{Code: "zh-CN", Name: "Chinese (Simplified)"},
	{Code: "zh-TW", Name: "Chinese (Traditional)"},
	{Code: "co", Name: "Corsican"},
	{Code: "hr", Name: "Croatian"},
	{Code: "cs", Name: "Czech"},
	{Code: "da", Name: "Danish"},
	{Code: "dv", Name: "Dhivehi"},
	{Code: "doi", Name: "Dogri"},
	{Code: "nl", Name: "Dutch"},
	{Code: "en", Name: "English"},
	{Code: "eo", Name: "Esperanto"},
	{Code: "et", Name: "Estonian"},
	{Code: "ee", Name: "Ewe"},
	{Code: "fil", Name: "Filipino (Tagalog)"},
	{Code: "fi", Name: "Finnish"},
	{Code: "fr", Name: "French"},
	{Code: "fy", Name: "Frisian"},
	{Code: "gl", Name: "Galician"},
	{Code: "ka", Name: "Georgian"},
	{Code: "de", Name: "German"},
	{Code: "el", Name: "Greek"},
	{Code: "gn", Name: "Guarani"},
	{Code: "gu", Name: "Gujarati"},
	{Code: "ht", Name: "Haitian Creole"},
	{Code: "ha", Name: "Hausa"},
	{Code: "haw", Name: "Hawaiian"},
	{Code: "he", Name: "Hebrew"},
	{Code: "iw", Name: "Hebrew"},
	{Code: "hi", Name: "Hindi"},
	{Code: "hmn", Name: "Hmong"},
	{Code: "hu", Name: "Hungarian"},
	{Code: "is", Name: "Icelandic"},
	{Code: "ig", Name: "Igbo"},
	{Code: "ilo", Name: "Ilocano"},
	{Code: "id", Name: "Indonesian"},
	{Code: "ga", Name: "Irish"},
	{Code: "it", Name: "Italian"},
	{Code: "ja", Name: "Japanese"},
	{Code: "jv", Name: "Javanese"},
	{Code: "kn", Name: "Kannada"},
	{Code: "kk", Name: "Kazakh"},
	{Code: "km", Name: "Khmer"},
	{Code: "rw", Name: "Kinyarwanda"},
	{Code: "gom", Name: "Konkani"},
	{Code: "ko", Name: "Korean"},
	{Code: "kri", Name: "Krio"},
	{Code: "ku", Name: "Kurdish"},
	{Code: "ckb", Name: "Kurdish (Sorani)"},
	{Code: "ky", Name: "Kyrgyz"},
	{Code: "lo", Name: "Lao"},
	{Code: "la", Name: "Latin"},
	{Code: "lv", Name: "Latvian"},
	{Code: "ln", Name: "Lingala"},
	{Code: "lt", Name: "Lithuanian"},
	{Code: "lg", Name: "Luganda"},
	{Code: "lb", Name: "Luxembourgish"},
	{Code: "mk", Name: "Macedonian"},
	{Code: "mai", Name: "Maithili"},
	{Code: "mg", Name: "Malagasy"},
	{Code: "ms", Name: "Malay"},
	{Code: "ml", Name: "Malayalam"},
	{Code: "mt", Name: "Maltese"},
	{Code: "mi", Name: "Maori"},
	{Code: "mr", Name: "Marathi"},
	{Code: "mni-Mtei", Name: "Meiteilon (Manipuri)"},
	{Code: "lus", Name: "Mizo"},
	{Code: "mn", Name: "Mongolian"},
	{Code: "my", Name: "Myanmar (Burmese)"},
	{Code: "ne", Name: "Nepali"},
	{Code: "no", Name: "Norwegian"},
	{Code: "ny", Name: "Nyanja (Chichewa)"},
	{Code: "or", Name: "Odia (Oriya)"},
	{Code: "om", Name: "Oromo"},
	{Code: "ps", Name: "Pashto"},
	{Code: "fa", Name: "Persian"},
	{Code: "pl", Name: "Polish"},
	{Code: "pt", Name: "Portuguese (Portugal, Brazil)"},
	{Code: "pa", Name: "Punjabi"},
	{Code: "qu", Name: "Quechua"},
	{Code: "ro", Name: "Romanian"},
	{Code: "ru", Name: "Russian"},
	{Code: "sm", Name: "Samoan"},
	{Code: "sa", Name: "Sanskrit"},
	{Code: "gd", Name: "Scots Gaelic"},
	{Code: "nso", Name: "Sepedi"},
	{Code: "sr", Name: "Serbian"},
	{Code: "st", Name: "Sesotho"},
	{Code: "sn", Name: "Shona"},
	{Code: "sd", Name: "Sindhi"},
	{Code: "si", Name: "Sinhala (Sinhalese)"},
	{Code: "sk", Name: "Slovak"},
	{Code: "sl", Name: "Slovenian"},
	{Code: "so", Name: "Somali"},
	{Code: "es", Name: "Spanish"},
	{Code: "su", Name: "Sundanese"},
	{Code: "sw", Name: "Swahili"},
	{Code: "sv", Name: "Swedish"},
	{Code: "tl", Name: "Tagalog (Filipino)"},
	{Code: "tg", Name: "Tajik"},
	{Code: "ta", Name: "Tamil"},
	{Code: "tt", Name: "Tatar"},
	{Code: "te", Name: "Telugu"},
	{Code: "th", Name: "Thai"},
	{Code: "ti", Name: "Tigrinya"},
	{Code: "ts", Name: "Tsonga"},
	{Code: "tr", Name: "Turkish"},
	{Code: "tk", Name: "Turkmen"},
	{Code: "ak", Name: "Twi (Akan)"},
	{Code: "uk", Name: "Ukrainian"},
	{Code: "ur", Name: "Urdu"},
	{Code: "ug", Name: "Uyghur"},
	{Code: "uz", Name: "Uzbek"},
	{Code: "vi", Name: "Vietnamese"},
	{Code: "cy", Name: "Welsh"},
	{Code: "xh", Name: "Xhosa"},
	{Code: "yi", Name: "Yiddish"},
	{Code: "yo", Name: "Yoruba"},
	{Code: "zu", Name: "Zulu"},
}
