package routertools

// Input schemas advertised to MCP clients. They mirror the validation done
// by the handlers.

const chatSchema = `{
  "type": "object",
  "properties": {
    "prompt": {"type": "string", "description": "User message to send. Mutually exclusive with messages."},
    "messages": {
      "type": "array",
      "description": "Full conversation. Mutually exclusive with prompt.",
      "items": {
        "type": "object",
        "properties": {
          "role": {"type": "string", "enum": ["system", "user", "assistant"]},
          "content": {"type": "string"}
        },
        "required": ["role", "content"]
      }
    },
    "model": {"type": "string", "description": "Model id, e.g. anthropic/claude-sonnet-4 or openai/gpt-4o."},
    "system": {"type": "string", "description": "System prompt."},
    "assistant_prefill": {"type": "string", "description": "Text the assistant reply must start with."},
    "max_tokens": {"type": "integer", "minimum": 1},
    "temperature": {"type": "number", "minimum": 0, "maximum": 2},
    "top_p": {"type": "number", "minimum": 0, "maximum": 1},
    "top_k": {"type": "integer", "minimum": 0},
    "frequency_penalty": {"type": "number", "minimum": -2, "maximum": 2},
    "presence_penalty": {"type": "number", "minimum": -2, "maximum": 2},
    "seed": {"type": "integer"},
    "stop": {"type": "array", "items": {"type": "string"}},
    "json_mode": {"type": "boolean", "description": "Request a JSON object response."},
    "response_format": {"type": "object", "description": "Raw response_format; overrides json_mode."},
    "reasoning_effort": {"type": "string", "enum": ["low", "medium", "high"]},
    "task": {"type": "string", "enum": ["text", "code", "vision"], "description": "Selects the default model when model is omitted."},
    "image_urls": {"type": "array", "items": {"type": "string"}, "description": "Images (URLs or data URLs) attached to the last user message."}
  }
}`

const imageSchema = `{
  "type": "object",
  "properties": {
    "prompt": {"type": "string", "description": "Image description: style, colors, composition."},
    "output_path": {"type": "string", "description": "Absolute path to save the image, e.g. /tmp/image.png."},
    "model": {"type": "string", "description": "Image model id, e.g. google/gemini-2.5-flash-image."},
    "aspect_ratio": {"type": "string", "enum": ["1:1", "16:9", "9:16", "4:3", "3:4", "21:9"], "default": "1:1"},
    "size": {"type": "string", "enum": ["1K", "2K", "4K"], "default": "1K"},
    "background": {"type": "string", "description": "e.g. transparent (PNG/WebP)."},
    "quality": {"type": "string", "description": "e.g. low, medium, high."},
    "output_format": {"type": "string", "enum": ["png", "jpeg", "webp"]}
  },
  "required": ["prompt", "output_path"]
}`

const embedSchema = `{
  "type": "object",
  "properties": {
    "input": {
      "description": "Text or list of texts to embed.",
      "oneOf": [
        {"type": "string"},
        {"type": "array", "items": {"type": "string"}, "minItems": 1}
      ]
    },
    "model": {"type": "string", "description": "Embedding model id, e.g. openai/text-embedding-3-small."},
    "encoding_format": {"type": "string", "enum": ["float", "base64"]},
    "dimensions": {"type": "integer", "minimum": 1}
  },
  "required": ["input"]
}`

const listModelsSchema = `{
  "type": "object",
  "properties": {
    "capability": {"type": "string", "enum": ["vision", "image_gen", "embedding", "tools", "long_context"]},
    "refresh": {"type": "boolean", "description": "Reload the cached catalog first."}
  }
}`

const findModelsSchema = `{
  "type": "object",
  "properties": {
    "search_term": {"type": "string", "description": "Text to look for in model ids and names."},
    "limit": {"type": "integer", "minimum": 0, "description": "Maximum results; 0 returns all."}
  },
  "required": ["search_term"]
}`
