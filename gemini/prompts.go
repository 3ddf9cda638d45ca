package gemini

// anomalySchema constrains the single-image analysis reply.
const anomalySchema = `{
  "type": "OBJECT",
  "properties": {
    "summary": { "type": "STRING", "description": "A scientific summary of the analyzed scene." },
    "anomalies": {
      "type": "ARRAY",
      "items": {
        "type": "OBJECT",
        "properties": {
          "label": { "type": "STRING", "description": "Short scientific name of the feature" },
          "description": { "type": "STRING", "description": "Visual description of the anomaly." },
          "scientificCause": { "type": "STRING", "description": "Hypothetical scientific origin." },
          "confidence": { "type": "NUMBER", "description": "Confidence score 0-100." },
          "box_2d": {
            "type": "ARRAY",
            "description": "Bounding box [ymin, xmin, ymax, xmax] on 0-1000 scale.",
            "items": { "type": "NUMBER" }
          }
        },
        "required": ["label", "description", "scientificCause", "box_2d", "confidence"]
      }
    }
  },
  "required": ["summary", "anomalies"]
}`

// changeSchema constrains the two-image comparison reply.
const changeSchema = `{
  "type": "OBJECT",
  "properties": {
    "summary": { "type": "STRING", "description": "Executive summary of the environmental changes observed." },
    "changes": {
      "type": "ARRAY",
      "items": {
        "type": "OBJECT",
        "properties": {
          "area": { "type": "STRING", "description": "Name of the affected region or feature." },
          "change_type": { "type": "STRING", "description": "Category: Deforestation, Urbanization, Melting, etc." },
          "description": { "type": "STRING", "description": "Detailed visual description of the change." },
          "impact": { "type": "STRING", "description": "Environmental or human consequences." },
          "possibleReason": { "type": "STRING", "description": "Driver of the change." },
          "estimated_scale": { "type": "STRING", "enum": ["Small", "Medium", "Large"], "description": "Magnitude of the change." },
          "confidence": { "type": "NUMBER", "description": "Confidence score 0-100." }
        },
        "required": ["area", "change_type", "description", "impact", "possibleReason", "estimated_scale", "confidence"]
      }
    }
  },
  "required": ["summary", "changes"]
}`
