package services

// IlluminationOptions lists the illumination methods offered on lit
// product types.
var IlluminationOptions = []string{
	"LED",
	"Neon",
	"Fluorescent",
	"None",
}

// MountingOptions lists the mounting styles templates reference.
var MountingOptions = []string{
	"Flush",
	"Raceway",
	"Wireway",
	"Stud",
	"Pad",
}

// WireExitOptions lists where the power wiring leaves the sign.
var WireExitOptions = []string{
	"Back",
	"Bottom",
	"Top",
	"Side",
}

// LetterDepthOptions lists the standard channel letter return depths in
// inches.
var LetterDepthOptions = []float64{3, 3.5, 5, 8}

// VinylBrandOptions lists the vinyl film brands carried in inventory.
var VinylBrandOptions = []string{
	"3M",
	"Avery",
	"Oracal",
	"Arlon",
}

// FaceColorOptions lists the standard acrylic face colors.
var FaceColorOptions = []string{
	"White",
	"Black",
	"Red",
	"Blue",
	"Green",
	"Yellow",
	"Custom",
}
