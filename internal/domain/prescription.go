package domain

// Prescription es un documento opaco devuelto por PharmaId. No se valida ni
// se transforma su forma.
type Prescription map[string]any
