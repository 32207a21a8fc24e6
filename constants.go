package main

// File paths
const (
	DEFAULT_CATEGORIES_FILE_PATH = "categories.yaml"
)
