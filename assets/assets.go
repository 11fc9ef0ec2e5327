package assets

import "embed"

// ModelFS embeds the data-model definition that fixes the column order of
// the consolidated CSV.
//
//go:embed model/data_model.csv
var ModelFS embed.FS

// DataModelPath is the embedded location of the data-model CSV.
const DataModelPath = "model/data_model.csv"
