package config

// configSchema is the structural contract for configuration files. Semantic
// rules (duration formats, range ordering) are enforced after unmarshalling.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "rotation_interval": {"type": "string"},
    "retained_windows": {"type": "integer", "minimum": 1},
    "histogram_precision": {"type": "integer", "minimum": 1, "maximum": 5},
    "histogram_min": {"type": "integer", "minimum": 1},
    "histogram_max": {"type": "integer", "minimum": 2},
    "http_listen": {"type": "string"},
    "channels": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "interests": {
            "type": "array",
            "items": {
              "type": "object",
              "additionalProperties": false,
              "required": ["stat"],
              "properties": {
                "stat": {
                  "type": "string",
                  "enum": ["count", "rate", "min", "max", "mean", "percentile", "trace"]
                },
                "percentile": {"type": "number", "minimum": 0, "maximum": 100},
                "path": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`
