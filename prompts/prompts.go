package prompts

import _ "embed"

// Embedded prompt files

//go:embed generation_system.txt
var generationSystem string

//go:embed repair_system.txt
var repairSystem string

func GenerationSystem() string { return generationSystem }
func RepairSystem() string     { return repairSystem }
